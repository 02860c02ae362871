package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// EncodeCharacters encodes skeleton bindings. Field order per record: bone
// mapping, skeleton mapping, scene object id, root id, bone positions, bone
// rotations, bone scales, 64-byte name.
func EncodeCharacters(characters []CharacterPackage, log *zap.Logger) []byte {
	if log == nil {
		log = zap.NewNop()
	}
	e := &nodeEncoder{Writer: wire.NewWriter(0), log: log}
	for i := range characters {
		c := &characters[i]
		e.Int32s(c.BoneMapping)
		e.Int32s(c.SkeletonMapping)
		e.Int32(c.SceneObjectID)
		e.Int32(c.RootID)

		e.Int32(int32(len(c.BonePositions)))
		for _, p := range c.BonePositions {
			e.Vec3(p)
		}
		e.Int32(int32(len(c.BoneRotations)))
		for _, q := range c.BoneRotations {
			e.Quat(q)
		}
		e.Int32(int32(len(c.BoneScales)))
		for _, s := range c.BoneScales {
			e.Vec3(s)
		}

		e.name(c.Name)
	}
	return e.Bytes()
}

// DecodeCharacters decodes a character section.
func DecodeCharacters(data []byte) ([]CharacterPackage, error) {
	r := wire.NewReader(data)
	var characters []CharacterPackage
	for !r.Done() {
		start := r.Offset()
		c := readCharacter(r)
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("character %d at offset %d: %w", len(characters), start, err)
		}
		characters = append(characters, c)
	}
	return characters, nil
}

func readCharacter(r *wire.Reader) CharacterPackage {
	var c CharacterPackage
	c.BoneMapping = r.Int32s()
	c.SkeletonMapping = r.Int32s()
	c.SceneObjectID = r.Int32()
	c.RootID = r.Int32()
	c.BonePositions = readVec3s(r)

	if n := r.Count(4 * wire.WordSize); n > 0 {
		c.BoneRotations = make([]mgl32.Quat, n)
		for i := range c.BoneRotations {
			c.BoneRotations[i] = r.Quat()
		}
	}

	c.BoneScales = readVec3s(r)
	c.Name = r.Fixed(NameSize)
	return c
}
