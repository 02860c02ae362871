package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// Node section errors.
var (
	ErrUnknownNodeTag = errors.New("unknown node tag")
	ErrInvalidNode    = errors.New("invalid node")
)

// Fixed layout sizes in bytes, excluding the 4-byte tag.
const (
	baseSize     = 4 + 4 + 3*4 + 4*4 + 3*4 + NameSize // editable, childCount, pos, rot, scale, name
	geoSize      = baseSize + 3*4 + 4 + 4*4           // ids, roughness, color
	geoV1Size    = baseSize + 3*4                     // ids
	skinHeadSize = 4 + NameSize + 3*4 + 3*4           // count, root bone, bounds
	skinPoseSize = 16*4 + NameSize                    // matrix + bone name
	lightSize    = baseSize + 4 + 4*4 + 3*4           // kind, intensity/angle/range/exposure, color
	lightV1Size  = baseSize + 4 + 3*4 + 3*4           // kind, intensity/angle/range, color
	cameraSize   = baseSize + 3*4                     // fov, near, far
)

// LayoutSize returns the number of bytes a node occupies in the node section,
// including its tag.
func LayoutSize(n Node) int {
	size := 4
	switch n := n.(type) {
	case *Group:
		size += baseSize
	case *Geo:
		size += geoSize
	case *SkinnedGeo:
		size += geoSize + skinHeadSize + len(n.BindPoses)*skinPoseSize
	case *Light:
		size += lightSize
	case *Camera:
		size += cameraSize
	case *GeoV1:
		size += geoV1Size
	case *SkinnedGeoV1:
		size += geoV1Size + skinHeadSize + len(n.BindPoses)*skinPoseSize
	case *LightV1:
		size += lightV1Size
	}
	return size
}

// nodeEncoder writes node fields and reports truncated names.
type nodeEncoder struct {
	*wire.Writer
	log *zap.Logger
}

func (e *nodeEncoder) name(s string) {
	if e.Fixed(s, NameSize) {
		e.log.Warn("name truncated",
			zap.String("name", s),
			zap.Int("size", NameSize))
	}
}

func (b *NodeBase) encodeBase(e *nodeEncoder) {
	e.Bool(b.Editable)
	e.Int32(b.ChildCount)
	e.Vec3(b.Position)
	e.Quat(b.Rotation)
	e.Vec3(b.Scale)
	e.name(b.Name)
}

func (b *NodeBase) decodeBase(r *wire.Reader) {
	b.Editable = r.Bool()
	b.ChildCount = r.Int32()
	b.Position = r.Vec3()
	b.Rotation = r.Quat()
	b.Scale = r.Vec3()
	b.Name = r.Fixed(NameSize)
}

func (s *Skin) encodeSkin(e *nodeEncoder) {
	e.Int32(int32(len(s.BindPoses)))
	e.name(s.RootBone)
	e.Vec3(s.BoundCenter)
	e.Vec3(s.BoundExtents)
	for _, m := range s.BindPoses {
		e.Mat4(m)
	}
	for _, bone := range s.BoneNames {
		e.name(bone)
	}
}

func (s *Skin) decodeSkin(r *wire.Reader) {
	count := r.Int32()
	s.RootBone = r.Fixed(NameSize)
	s.BoundCenter = r.Vec3()
	s.BoundExtents = r.Vec3()
	if r.Err() != nil {
		return
	}
	if count < 0 || int64(count)*skinPoseSize > int64(r.Remaining()) {
		// Route through the reader so the framing error carries an offset
		r.Raw(int(count) * skinPoseSize)
		return
	}
	if count == 0 {
		return
	}
	s.BindPoses = make([]mgl32.Mat4, count)
	for i := range s.BindPoses {
		s.BindPoses[i] = r.Mat4()
	}
	s.BoneNames = make([]string, count)
	for i := range s.BoneNames {
		s.BoneNames[i] = r.Fixed(NameSize)
	}
}

func (g *Group) encode(e *nodeEncoder) {
	g.encodeBase(e)
}

func (g *Geo) encode(e *nodeEncoder) {
	g.encodeBase(e)
	e.Int32(g.GeoID)
	e.Int32(g.TextureID)
	e.Int32(g.MaterialID)
	e.Float32(g.Roughness)
	e.Vec4(g.Color)
}

func (g *Geo) decode(r *wire.Reader) {
	g.decodeBase(r)
	g.GeoID = r.Int32()
	g.TextureID = r.Int32()
	g.MaterialID = r.Int32()
	g.Roughness = r.Float32()
	g.Color = r.Vec4()
}

func (g *SkinnedGeo) encode(e *nodeEncoder) {
	g.Geo.encode(e)
	g.encodeSkin(e)
}

func (l *Light) encode(e *nodeEncoder) {
	l.encodeBase(e)
	e.Int32(int32(l.Kind))
	e.Float32(l.Intensity)
	e.Float32(l.Angle)
	e.Float32(l.Range)
	e.Float32(l.Exposure)
	e.Vec3(l.Color)
}

func (c *Camera) encode(e *nodeEncoder) {
	c.encodeBase(e)
	e.Float32(c.FOV)
	e.Float32(c.Near)
	e.Float32(c.Far)
}

func (g *GeoV1) encode(e *nodeEncoder) {
	g.encodeBase(e)
	e.Int32(g.GeoID)
	e.Int32(g.TextureID)
	e.Int32(g.MaterialID)
}

func (g *GeoV1) decode(r *wire.Reader) {
	g.decodeBase(r)
	g.GeoID = r.Int32()
	g.TextureID = r.Int32()
	g.MaterialID = r.Int32()
}

func (g *SkinnedGeoV1) encode(e *nodeEncoder) {
	g.GeoV1.encode(e)
	g.encodeSkin(e)
}

func (l *LightV1) encode(e *nodeEncoder) {
	l.encodeBase(e)
	e.Int32(int32(l.Kind))
	e.Float32(l.Intensity)
	e.Float32(l.Angle)
	e.Float32(l.Range)
	e.Vec3(l.Color)
}

// validateNode checks invariants the fixed layout cannot express.
func validateNode(n Node, version int32) error {
	if v := n.Version(); v != 0 && v != version {
		return fmt.Errorf("%w: %s node %q uses version %d layout in a version %d scene",
			ErrVersionMismatch, n.Tag(), n.Common().Name, v, version)
	}
	var skin *Skin
	switch n := n.(type) {
	case *SkinnedGeo:
		skin = &n.Skin
	case *SkinnedGeoV1:
		skin = &n.Skin
	}
	if skin != nil && len(skin.BoneNames) != len(skin.BindPoses) {
		return fmt.Errorf("%w: skinned node %q has %d bind poses but %d bone names",
			ErrInvalidNode, n.Common().Name, len(skin.BindPoses), len(skin.BoneNames))
	}
	return nil
}

// EncodeNodes encodes nodes for the given protocol version. Every node is
// written as its tag followed by its fixed layout.
func EncodeNodes(nodes []Node, version int32, log *zap.Logger) ([]byte, error) {
	if log == nil {
		log = zap.NewNop()
	}
	size := 0
	for i, n := range nodes {
		if err := validateNode(n, version); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		size += LayoutSize(n)
	}

	e := &nodeEncoder{Writer: wire.NewWriter(size), log: log}
	for _, n := range nodes {
		e.Int32(int32(n.Tag()))
		n.encode(e)
	}
	return e.Bytes(), nil
}

// DecodeNodes decodes a node section written for the given protocol version.
// A truncated record fails the whole section.
func DecodeNodes(data []byte, version int32) ([]Node, error) {
	if !knownVersion(version) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}

	r := wire.NewReader(data)
	var nodes []Node
	for !r.Done() {
		start := r.Offset()
		tag := NodeTag(r.Int32())
		node, err := readNode(r, tag, version)
		if err == nil {
			err = r.Err()
		}
		if err != nil {
			return nil, fmt.Errorf("node %d at offset %d: %w", len(nodes), start, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// readNode dispatches on the tag to the layout of the given version.
func readNode(r *wire.Reader, tag NodeTag, version int32) (Node, error) {
	if r.Err() != nil {
		return nil, r.Err()
	}
	legacy := version == LegacyVersion

	switch tag {
	case TagGroup:
		n := &Group{}
		n.decodeBase(r)
		return n, nil

	case TagGeo:
		if legacy {
			n := &GeoV1{}
			n.decode(r)
			return n, nil
		}
		n := &Geo{}
		n.decode(r)
		return n, nil

	case TagSkinnedMesh:
		if legacy {
			n := &SkinnedGeoV1{}
			n.GeoV1.decode(r)
			n.decodeSkin(r)
			return n, nil
		}
		n := &SkinnedGeo{}
		n.Geo.decode(r)
		n.decodeSkin(r)
		return n, nil

	case TagLight:
		var base NodeBase
		base.decodeBase(r)
		kind := LightKind(r.Int32())
		intensity, angle, rng := r.Float32(), r.Float32(), r.Float32()
		if legacy {
			return &LightV1{NodeBase: base, Kind: kind, Intensity: intensity,
				Angle: angle, Range: rng, Color: r.Vec3()}, nil
		}
		exposure := r.Float32()
		return &Light{NodeBase: base, Kind: kind, Intensity: intensity,
			Angle: angle, Range: rng, Exposure: exposure, Color: r.Vec3()}, nil

	case TagCamera:
		n := &Camera{}
		n.decodeBase(r)
		n.FOV = r.Float32()
		n.Near = r.Float32()
		n.Far = r.Float32()
		return n, nil

	default:
		return nil, fmt.Errorf("%w: %w %d", wire.ErrFraming, ErrUnknownNodeTag, int32(tag))
	}
}
