package scene

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Defaults for fields introduced in version 2.
const (
	DefaultRoughness float32 = 0.5
	DefaultExposure  float32 = 1
)

// DefaultColor is the color given to geometry converted from version 1.
var DefaultColor = mgl32.Vec4{1, 1, 1, 1}

// Convert returns a copy of s in the current protocol version. Converting a
// scene that is already current returns an equal copy. Packages are shared
// with s; nodes are copied.
func Convert(s *Scene) (*Scene, error) {
	switch s.Header.Version {
	case CurrentVersion, LegacyVersion:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, s.Header.Version)
	}

	out := *s
	out.Header.Version = CurrentVersion
	out.Nodes = make([]Node, len(s.Nodes))
	for i, n := range s.Nodes {
		out.Nodes[i] = convertNode(n)
	}
	return &out, nil
}

// convertNode maps one node to its current layout.
func convertNode(n Node) Node {
	switch n := n.(type) {
	case *GeoV1:
		return geoFromV1(n)
	case *SkinnedGeoV1:
		return &SkinnedGeo{Geo: *geoFromV1(&n.GeoV1), Skin: copySkin(n.Skin)}
	case *LightV1:
		return lightFromV1(n)
	case *Group:
		c := *n
		return &c
	case *Geo:
		c := *n
		return &c
	case *SkinnedGeo:
		c := *n
		c.Skin = copySkin(n.Skin)
		return &c
	case *Light:
		c := *n
		return &c
	case *Camera:
		c := *n
		return &c
	}
	panic(fmt.Sprintf("scene: unhandled node type %T", n))
}

func geoFromV1(g *GeoV1) *Geo {
	return &Geo{
		NodeBase:   g.NodeBase,
		GeoID:      g.GeoID,
		TextureID:  g.TextureID,
		MaterialID: g.MaterialID,
		Roughness:  DefaultRoughness,
		Color:      DefaultColor,
	}
}

func lightFromV1(l *LightV1) *Light {
	return &Light{
		NodeBase:  l.NodeBase,
		Kind:      l.Kind,
		Intensity: l.Intensity,
		Angle:     l.Angle,
		Range:     l.Range,
		Exposure:  DefaultExposure,
		Color:     l.Color,
	}
}

func copySkin(s Skin) Skin {
	s.BindPoses = slices.Clone(s.BindPoses)
	s.BoneNames = slices.Clone(s.BoneNames)
	return s
}
