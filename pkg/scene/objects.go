package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// EncodeObjects encodes mesh packages. Field order per record: vertices,
// indices, normals, uvs, bone weights, bone indices, each as
// [int32 count][count × element].
func EncodeObjects(objects []ObjectPackage) []byte {
	w := wire.NewWriter(0)
	for i := range objects {
		o := &objects[i]

		w.Int32(int32(len(o.Vertices)))
		for _, v := range o.Vertices {
			w.Vec3(v)
		}

		w.Int32s(o.Indices)

		w.Int32(int32(len(o.Normals)))
		for _, n := range o.Normals {
			w.Vec3(n)
		}

		w.Int32(int32(len(o.UVs)))
		for _, uv := range o.UVs {
			w.Vec2(uv)
		}

		w.Int32(int32(len(o.BoneWeights)))
		for _, bw := range o.BoneWeights {
			w.Vec4(bw)
		}

		w.Int32(int32(len(o.BoneIndices)))
		for _, bi := range o.BoneIndices {
			for _, idx := range bi {
				w.Int32(idx)
			}
		}
	}
	return w.Bytes()
}

// DecodeObjects decodes a mesh package section.
func DecodeObjects(data []byte) ([]ObjectPackage, error) {
	r := wire.NewReader(data)
	var objects []ObjectPackage
	for !r.Done() {
		start := r.Offset()
		o := readObject(r)
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("object %d at offset %d: %w", len(objects), start, err)
		}
		objects = append(objects, o)
	}
	return objects, nil
}

func readObject(r *wire.Reader) ObjectPackage {
	var o ObjectPackage
	o.Vertices = readVec3s(r)
	o.Indices = r.Int32s()
	o.Normals = readVec3s(r)

	if n := r.Count(2 * wire.WordSize); n > 0 {
		o.UVs = make([]mgl32.Vec2, n)
		for i := range o.UVs {
			o.UVs[i] = r.Vec2()
		}
	}

	if n := r.Count(4 * wire.WordSize); n > 0 {
		o.BoneWeights = make([]mgl32.Vec4, n)
		for i := range o.BoneWeights {
			o.BoneWeights[i] = r.Vec4()
		}
	}

	if n := r.Count(4 * wire.WordSize); n > 0 {
		o.BoneIndices = make([][4]int32, n)
		for i := range o.BoneIndices {
			for j := range o.BoneIndices[i] {
				o.BoneIndices[i][j] = r.Int32()
			}
		}
	}
	return o
}

func readVec3s(r *wire.Reader) []mgl32.Vec3 {
	n := r.Count(3 * wire.WordSize)
	if n == 0 {
		return nil
	}
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = r.Vec3()
	}
	return out
}

// VertexCount returns the total number of vertices across all objects.
func (s *Scene) VertexCount() int {
	total := 0
	for _, o := range s.Objects {
		total += len(o.Vertices)
	}
	return total
}

// TriangleCount returns the total number of triangles across all objects.
func (s *Scene) TriangleCount() int {
	total := 0
	for _, o := range s.Objects {
		total += len(o.Indices) / 3
	}
	return total
}
