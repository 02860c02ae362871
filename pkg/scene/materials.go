package scene

import (
	"fmt"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// EncodeMaterials encodes material packages. Field order per record: type,
// name, src, material id, texture ids, texture offsets, texture scales,
// shader config, shader property ids, shader property types, shader
// property payload.
func EncodeMaterials(materials []MaterialPackage) []byte {
	w := wire.NewWriter(0)
	for i := range materials {
		m := &materials[i]
		w.Int32(int32(m.Type))
		w.ASCII(m.Name)
		w.ASCII(m.Src)
		w.Int32(m.MaterialID)
		w.Int32s(m.TextureIDs)
		w.Float32s(m.TextureOffsets)
		w.Float32s(m.TextureScales)
		w.Bools(m.ShaderConfig)
		w.Int32s(m.ShaderPropertyIDs)
		w.Int32s(m.ShaderPropertyTypes)
		w.ByteArray(m.ShaderProperties)
	}
	return w.Bytes()
}

// DecodeMaterials decodes a material section.
func DecodeMaterials(data []byte) ([]MaterialPackage, error) {
	r := wire.NewReader(data)
	var materials []MaterialPackage
	for !r.Done() {
		start := r.Offset()
		m := MaterialPackage{
			Type:       MaterialType(r.Int32()),
			Name:       r.ASCII(),
			Src:        r.ASCII(),
			MaterialID: r.Int32(),
		}
		m.TextureIDs = r.Int32s()
		m.TextureOffsets = r.Float32s()
		m.TextureScales = r.Float32s()
		m.ShaderConfig = r.Bools()
		m.ShaderPropertyIDs = r.Int32s()
		m.ShaderPropertyTypes = r.Int32s()
		m.ShaderProperties = r.ByteArray()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("material %d at offset %d: %w", len(materials), start, err)
		}
		materials = append(materials, m)
	}
	return materials, nil
}

// MaterialByID returns the material with the given id, or nil.
func (s *Scene) MaterialByID(id int32) *MaterialPackage {
	for i := range s.Materials {
		if s.Materials[i].MaterialID == id {
			return &s.Materials[i]
		}
	}
	return nil
}
