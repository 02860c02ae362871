// Package scene provides the scene description exchanged between a scene host
// and its viewers, and the binary codec that moves it over the wire.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Protocol versions understood by the codec.
const (
	LegacyVersion  int32 = 1
	CurrentVersion int32 = 2
)

// NameSize is the fixed byte size of node, bone and character names.
const NameSize = 64

// Header describes the protocol version and global scene settings.
type Header struct {
	Version              int32
	Scale                float32
	LightIntensityFactor float32
	TextureBinaryType    int32
	SenderID             int32
	FrameRate            int32
}

// headerSize is the encoded size of Header.
const headerSize = 6 * 4

// DefaultHeader returns a header for the current protocol version.
func DefaultHeader() Header {
	return Header{
		Version:              CurrentVersion,
		Scale:                1,
		LightIntensityFactor: 1,
		FrameRate:            60,
	}
}

// NodeTag is the type discriminator written before every node.
type NodeTag int32

const (
	TagGroup       NodeTag = 0
	TagGeo         NodeTag = 1
	TagSkinnedMesh NodeTag = 2
	TagLight       NodeTag = 3
	TagCamera      NodeTag = 4
)

// String returns a human-readable node tag name.
func (t NodeTag) String() string {
	switch t {
	case TagGroup:
		return "Group"
	case TagGeo:
		return "Geo"
	case TagSkinnedMesh:
		return "SkinnedMesh"
	case TagLight:
		return "Light"
	case TagCamera:
		return "Camera"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(t))
	}
}

// Node is one entry of the scene graph. The set of implementations is closed:
// Group, Geo, SkinnedGeo, Light, Camera and their legacy layouts.
type Node interface {
	// Tag returns the wire discriminator.
	Tag() NodeTag
	// Common returns the fields shared by every node.
	Common() *NodeBase
	// Version returns the protocol version whose layout the node uses,
	// or 0 if the layout is identical in every version.
	Version() int32

	encode(e *nodeEncoder)
}

// NodeBase holds the fields shared by every node.
type NodeBase struct {
	Editable   bool
	ChildCount int32
	Position   mgl32.Vec3
	Rotation   mgl32.Quat
	Scale      mgl32.Vec3
	Name       string
}

// Common returns the shared node fields.
func (b *NodeBase) Common() *NodeBase { return b }

// DefaultBase returns a named node base at the origin with identity
// rotation and unit scale.
func DefaultBase(name string) NodeBase {
	return NodeBase{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Name:     name,
	}
}

// Group is a pure transform node.
type Group struct {
	NodeBase
}

// Geo references a mesh, texture and material.
type Geo struct {
	NodeBase
	GeoID      int32
	TextureID  int32
	MaterialID int32 // -1 = default material
	Roughness  float32
	Color      mgl32.Vec4
}

// Skin holds the skeleton binding of a skinned mesh. Its layout is the same
// in every protocol version.
type Skin struct {
	RootBone     string
	BoundCenter  mgl32.Vec3
	BoundExtents mgl32.Vec3
	BindPoses    []mgl32.Mat4
	BoneNames    []string // one per bind pose
}

// SkinnedGeo is a Geo bound to a skeleton.
type SkinnedGeo struct {
	Geo
	Skin
}

// LightKind enumerates light sources.
type LightKind int32

const (
	LightSpot        LightKind = 0
	LightDirectional LightKind = 1
	LightPoint       LightKind = 2
	LightArea        LightKind = 3
)

// String returns a human-readable light kind.
func (k LightKind) String() string {
	switch k {
	case LightSpot:
		return "Spot"
	case LightDirectional:
		return "Directional"
	case LightPoint:
		return "Point"
	case LightArea:
		return "Area"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(k))
	}
}

// Light is a light source.
type Light struct {
	NodeBase
	Kind      LightKind
	Intensity float32
	Angle     float32
	Range     float32
	Exposure  float32
	Color     mgl32.Vec3
}

// Camera is a perspective camera.
type Camera struct {
	NodeBase
	FOV  float32
	Near float32
	Far  float32
}

// GeoV1 is the version 1 geometry layout, before roughness and color.
type GeoV1 struct {
	NodeBase
	GeoID      int32
	TextureID  int32
	MaterialID int32
}

// SkinnedGeoV1 is the version 1 skinned mesh layout.
type SkinnedGeoV1 struct {
	GeoV1
	Skin
}

// LightV1 is the version 1 light layout, before exposure.
type LightV1 struct {
	NodeBase
	Kind      LightKind
	Intensity float32
	Angle     float32
	Range     float32
	Color     mgl32.Vec3
}

func (*Group) Tag() NodeTag        { return TagGroup }
func (*Geo) Tag() NodeTag          { return TagGeo }
func (*SkinnedGeo) Tag() NodeTag   { return TagSkinnedMesh }
func (*Light) Tag() NodeTag        { return TagLight }
func (*Camera) Tag() NodeTag       { return TagCamera }
func (*GeoV1) Tag() NodeTag        { return TagGeo }
func (*SkinnedGeoV1) Tag() NodeTag { return TagSkinnedMesh }
func (*LightV1) Tag() NodeTag      { return TagLight }

func (*Group) Version() int32        { return 0 }
func (*Geo) Version() int32          { return CurrentVersion }
func (*SkinnedGeo) Version() int32   { return CurrentVersion }
func (*Light) Version() int32        { return CurrentVersion }
func (*Camera) Version() int32       { return 0 }
func (*GeoV1) Version() int32        { return LegacyVersion }
func (*SkinnedGeoV1) Version() int32 { return LegacyVersion }
func (*LightV1) Version() int32      { return LegacyVersion }

// ObjectPackage is the mesh data of one geometry.
type ObjectPackage struct {
	Vertices    []mgl32.Vec3
	Indices     []int32
	Normals     []mgl32.Vec3
	UVs         []mgl32.Vec2
	BoneWeights []mgl32.Vec4
	BoneIndices [][4]int32
}

// CharacterPackage binds a skinned mesh to its skeleton.
type CharacterPackage struct {
	BoneMapping     []int32
	SkeletonMapping []int32
	SceneObjectID   int32
	RootID          int32
	BonePositions   []mgl32.Vec3
	BoneRotations   []mgl32.Quat
	BoneScales      []mgl32.Vec3
	Name            string
}

// TextureFormat identifies the pixel layout of a texture.
type TextureFormat int32

const (
	FormatRGBA32 TextureFormat = 0
	FormatRGB24  TextureFormat = 1
	FormatAlpha8 TextureFormat = 2
	FormatDXT1   TextureFormat = 3
	FormatDXT5   TextureFormat = 4
)

// String returns a human-readable texture format.
func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA32:
		return "RGBA32"
	case FormatRGB24:
		return "RGB24"
	case FormatAlpha8:
		return "Alpha8"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT5:
		return "DXT5"
	default:
		return fmt.Sprintf("Unknown(%d)", int32(f))
	}
}

// TexturePackage holds raw texture pixels.
type TexturePackage struct {
	Width  int32
	Height int32
	Format TextureFormat
	Pixels []byte
}

// MaterialType identifies how a material's shader properties are interpreted.
type MaterialType int32

const (
	MaterialUnity    MaterialType = 0
	MaterialStandard MaterialType = 1
	MaterialCustom   MaterialType = 2
)

// MaterialPackage describes a material and its shader configuration.
type MaterialPackage struct {
	Type                MaterialType
	Name                string
	Src                 string
	MaterialID          int32
	TextureIDs          []int32
	TextureOffsets      []float32 // x,y per texture
	TextureScales       []float32 // x,y per texture
	ShaderConfig        []bool
	ShaderPropertyIDs   []int32
	ShaderPropertyTypes []int32
	ShaderProperties    []byte
}

// Scene is a decoded scene graph fragment.
type Scene struct {
	Header     Header
	Nodes      []Node
	Objects    []ObjectPackage
	Characters []CharacterPackage
	Textures   []TexturePackage
	Materials  []MaterialPackage
}

// New returns an empty scene with the default header.
func New() *Scene {
	return &Scene{Header: DefaultHeader()}
}

// NodeCount returns the number of nodes.
func (s *Scene) NodeCount() int {
	return len(s.Nodes)
}

// Find returns the first node with the given name, or nil if not found.
func (s *Scene) Find(name string) Node {
	for _, n := range s.Nodes {
		if n.Common().Name == name {
			return n
		}
	}
	return nil
}

// CountByTag returns the number of nodes with the given tag.
func (s *Scene) CountByTag(tag NodeTag) int {
	count := 0
	for _, n := range s.Nodes {
		if n.Tag() == tag {
			count++
		}
	}
	return count
}
