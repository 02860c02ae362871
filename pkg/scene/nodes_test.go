package scene

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

func base(name string) NodeBase {
	b := DefaultBase(name)
	b.Editable = true
	b.ChildCount = 2
	b.Position = mgl32.Vec3{1, 2, 3}
	b.Rotation = mgl32.Quat{W: 0.7071068, V: mgl32.Vec3{0, 0.7071068, 0}}
	b.Scale = mgl32.Vec3{2, 2, 2}
	return b
}

func sampleNodes() []Node {
	return []Node{
		&Group{NodeBase: base("Root")},
		&Geo{
			NodeBase:   base("Cube"),
			GeoID:      3,
			TextureID:  1,
			MaterialID: -1,
			Roughness:  0.25,
			Color:      mgl32.Vec4{1, 0, 0, 1},
		},
		&SkinnedGeo{
			Geo: Geo{NodeBase: base("Body"), GeoID: 4, TextureID: -1, MaterialID: 2, Roughness: 0.8, Color: mgl32.Vec4{1, 1, 1, 1}},
			Skin: Skin{
				RootBone:     "Hips",
				BoundCenter:  mgl32.Vec3{0, 1, 0},
				BoundExtents: mgl32.Vec3{0.5, 1, 0.5},
				BindPoses:    []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 2, 3)},
				BoneNames:    []string{"Hips", "Spine"},
			},
		},
		&Light{
			NodeBase:  base("Sun"),
			Kind:      LightDirectional,
			Intensity: 1.5,
			Angle:     30,
			Range:     100,
			Exposure:  0.5,
			Color:     mgl32.Vec3{1, 0.9, 0.8},
		},
		&Camera{NodeBase: base("Main"), FOV: 60, Near: 0.1, Far: 1000},
	}
}

func TestNodesRoundTrip(t *testing.T) {
	for _, n := range sampleNodes() {
		t.Run(n.Tag().String(), func(t *testing.T) {
			data, err := EncodeNodes([]Node{n}, CurrentVersion, nil)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if len(data) != LayoutSize(n) {
				t.Errorf("expected %d bytes, got %d", LayoutSize(n), len(data))
			}

			got, err := DecodeNodes(data, CurrentVersion)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected 1 node, got %d", len(got))
			}
			if !reflect.DeepEqual(got[0], n) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got[0], n)
			}
		})
	}
}

func TestNodesRoundTripLegacy(t *testing.T) {
	nodes := []Node{
		&Group{NodeBase: base("Root")},
		&GeoV1{NodeBase: base("Old"), GeoID: 1, TextureID: 2, MaterialID: -1},
		&SkinnedGeoV1{
			GeoV1: GeoV1{NodeBase: base("OldBody"), GeoID: 5},
			Skin:  Skin{RootBone: "Root", BindPoses: []mgl32.Mat4{mgl32.Ident4()}, BoneNames: []string{"Root"}},
		},
		&LightV1{NodeBase: base("Lamp"), Kind: LightPoint, Intensity: 2, Range: 10, Color: mgl32.Vec3{1, 1, 1}},
		&Camera{NodeBase: base("Cam"), FOV: 45, Near: 1, Far: 10},
	}

	data, err := EncodeNodes(nodes, LegacyVersion, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeNodes(data, LegacyVersion)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, nodes) {
		t.Errorf("legacy round trip mismatch:\n got %+v\nwant %+v", got, nodes)
	}
}

func TestCubeScenario(t *testing.T) {
	cube := &Geo{
		NodeBase: NodeBase{
			Position: mgl32.Vec3{1, 2, 3},
			Rotation: mgl32.QuatIdent(),
			Scale:    mgl32.Vec3{1, 1, 1},
			Name:     "Cube",
		},
		GeoID:      0,
		MaterialID: -1,
	}

	codec := NewCodec(nil)
	sections, err := codec.Encode(&Scene{Header: DefaultHeader(), Nodes: []Node{cube}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s, err := codec.Decode(sections)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(s.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(s.Nodes))
	}
	geo, ok := s.Nodes[0].(*Geo)
	if !ok {
		t.Fatalf("expected *Geo, got %T", s.Nodes[0])
	}
	if geo.Name != "Cube" {
		t.Errorf("expected name Cube, got %q", geo.Name)
	}
	if geo.Position != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("expected position (1,2,3), got %v", geo.Position)
	}
	if geo.MaterialID != -1 {
		t.Errorf("expected materialId -1, got %d", geo.MaterialID)
	}
}

func TestNodeNamePadding(t *testing.T) {
	data, err := EncodeNodes([]Node{&Group{NodeBase: DefaultBase("ab")}}, CurrentVersion, nil)
	if err != nil {
		t.Fatal(err)
	}
	// tag + editable + childCount + pos + rot + scale = 4 + 4 + 4 + 12 + 16 + 12
	nameStart := 52
	name := data[nameStart : nameStart+NameSize]
	if string(name[:2]) != "ab" {
		t.Errorf("expected name at offset %d, got %q", nameStart, name[:2])
	}
	for i, b := range name[2:] {
		if b != 0 {
			t.Fatalf("expected NUL padding at %d, got %d", i+2, b)
		}
	}
}

func TestNodeNameTruncation(t *testing.T) {
	long := strings.Repeat("n", NameSize+20)
	data, err := EncodeNodes([]Node{&Group{NodeBase: DefaultBase(long)}}, CurrentVersion, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4+baseSize {
		t.Fatalf("name overflowed the fixed buffer: %d bytes", len(data))
	}

	nodes, err := DecodeNodes(data, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	if got := nodes[0].Common().Name; got != long[:NameSize] {
		t.Errorf("expected truncated name of %d bytes, got %d", NameSize, len(got))
	}
}

func TestDecodeNodesTruncated(t *testing.T) {
	data, err := EncodeNodes(sampleNodes(), CurrentVersion, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, cut := range []int{1, 4, 60, len(data) - 1} {
		nodes, err := DecodeNodes(data[:len(data)-cut], CurrentVersion)
		if !errors.Is(err, wire.ErrFraming) {
			t.Errorf("cut %d: expected framing error, got %v", cut, err)
		}
		if nodes != nil {
			t.Errorf("cut %d: expected no partial node list, got %d nodes", cut, len(nodes))
		}
	}
}

func TestDecodeNodesUnknownTag(t *testing.T) {
	w := wire.NewWriter(4)
	w.Int32(42)
	_, err := DecodeNodes(w.Bytes(), CurrentVersion)
	if !errors.Is(err, ErrUnknownNodeTag) {
		t.Errorf("expected ErrUnknownNodeTag, got %v", err)
	}
}

func TestEncodeNodesVersionMismatch(t *testing.T) {
	_, err := EncodeNodes([]Node{&GeoV1{NodeBase: DefaultBase("old")}}, CurrentVersion, nil)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestEncodeNodesBoneNameMismatch(t *testing.T) {
	n := &SkinnedGeo{Skin: Skin{BindPoses: []mgl32.Mat4{mgl32.Ident4()}}}
	_, err := EncodeNodes([]Node{n}, CurrentVersion, nil)
	if !errors.Is(err, ErrInvalidNode) {
		t.Errorf("expected ErrInvalidNode, got %v", err)
	}
}

func TestBindPoseRowMajor(t *testing.T) {
	pose := mgl32.Translate3D(7, 8, 9)
	n := &SkinnedGeo{
		Geo:  Geo{NodeBase: DefaultBase("s")},
		Skin: Skin{BindPoses: []mgl32.Mat4{pose}, BoneNames: []string{"b"}},
	}
	data, err := EncodeNodes([]Node{n}, CurrentVersion, nil)
	if err != nil {
		t.Fatal(err)
	}

	matStart := 4 + geoSize + skinHeadSize
	r := wire.NewReader(data[matStart : matStart+64])
	var flat [16]float32
	for i := range flat {
		flat[i] = r.Float32()
	}
	if flat[3] != 7 || flat[7] != 8 || flat[11] != 9 {
		t.Errorf("bind pose not written row-major: %v", flat)
	}

	nodes, err := DecodeNodes(data, CurrentVersion)
	if err != nil {
		t.Fatal(err)
	}
	got := nodes[0].(*SkinnedGeo).BindPoses[0]
	if got.At(0, 3) != 7 || got.At(1, 3) != 8 || got.At(2, 3) != 9 {
		t.Errorf("bind pose transposed on decode: %v", got)
	}
}

func TestNodeTagString(t *testing.T) {
	tests := []struct {
		tag  NodeTag
		want string
	}{
		{TagGroup, "Group"},
		{TagGeo, "Geo"},
		{TagSkinnedMesh, "SkinnedMesh"},
		{TagLight, "Light"},
		{TagCamera, "Camera"},
		{NodeTag(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("NodeTag(%d).String() = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
