package scene

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

func sampleScene() *Scene {
	s := New()
	s.Header.SenderID = 7
	s.Nodes = sampleNodes()
	s.Objects = []ObjectPackage{{
		Vertices: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:  []int32{0, 1, 2},
		Normals:  []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:      []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
	}}
	s.Characters = []CharacterPackage{{
		BoneMapping:   []int32{0, 1},
		SceneObjectID: 2,
		BonePositions: []mgl32.Vec3{{0, 1, 0}},
		BoneRotations: []mgl32.Quat{mgl32.QuatIdent()},
		BoneScales:    []mgl32.Vec3{{1, 1, 1}},
		Name:          "Body",
	}}
	s.Textures = []TexturePackage{{Width: 1, Height: 1, Format: FormatRGBA32, Pixels: []byte{255, 0, 0, 255}}}
	s.Materials = []MaterialPackage{{Name: "Red", Src: "Standard", MaterialID: 2, TextureIDs: []int32{0}}}
	return s
}

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec(nil)
	want := sampleScene()

	sections, err := codec.Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := codec.Decode(sections)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("scene round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestCodecHeaderLayout(t *testing.T) {
	h := DefaultHeader()
	data := EncodeHeader(h)
	if len(data) != headerSize {
		t.Fatalf("expected header of %d bytes, got %d", headerSize, len(data))
	}
	got, err := DecodeHeader(data)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("header mismatch: got %+v want %+v", got, h)
	}

	if _, err := DecodeHeader(append(data, 0)); !errors.Is(err, wire.ErrFraming) {
		t.Errorf("expected framing error for trailing byte, got %v", err)
	}
	if _, err := DecodeHeader(data[:10]); !errors.Is(err, wire.ErrFraming) {
		t.Errorf("expected framing error for short header, got %v", err)
	}
}

func TestCodecEmptySections(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	codec := NewCodec(zap.New(core))

	s, err := codec.Decode(&Sections{})
	if err != nil {
		t.Fatalf("empty sections should not fail: %v", err)
	}
	if s.Header != DefaultHeader() {
		t.Errorf("expected default header, got %+v", s.Header)
	}
	if len(s.Nodes) != 0 || len(s.Materials) != 0 {
		t.Error("expected empty lists")
	}
	if n := logs.FilterMessageSnippet("empty scene section").Len(); n != len(AllSections) {
		t.Errorf("expected %d warnings, got %d", len(AllSections), n)
	}

	if _, err := codec.Decode(nil); err != nil {
		t.Errorf("nil sections should not fail: %v", err)
	}
}

func TestCodecFramingErrorIsolated(t *testing.T) {
	codec := NewCodec(nil)
	sections, err := codec.Encode(sampleScene())
	if err != nil {
		t.Fatal(err)
	}
	sections.Nodes = sections.Nodes[:len(sections.Nodes)-3]

	s, err := codec.Decode(sections)
	if err == nil {
		t.Fatal("expected error for truncated node section")
	}

	var sectionErr *SectionError
	if !errors.As(err, &sectionErr) {
		t.Fatalf("expected *SectionError, got %T", err)
	}
	if sectionErr.Section != SectionNodes {
		t.Errorf("expected nodes section error, got %s", sectionErr.Section)
	}
	if !errors.Is(err, wire.ErrFraming) {
		t.Errorf("expected framing error, got %v", err)
	}
	if s.Nodes != nil {
		t.Errorf("expected no partial nodes, got %d", len(s.Nodes))
	}
	if len(s.Materials) != 1 || len(s.Objects) != 1 {
		t.Error("other sections should still decode")
	}
}

func TestCodecUnknownVersion(t *testing.T) {
	codec := NewCodec(nil)
	s := New()
	s.Header.Version = 9

	if _, err := codec.Encode(s); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("encode: expected ErrUnknownVersion, got %v", err)
	}

	sections := &Sections{Header: EncodeHeader(s.Header)}
	if _, err := codec.Decode(sections); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("decode: expected ErrUnknownVersion, got %v", err)
	}
}

func TestSectionsGetSet(t *testing.T) {
	var s Sections
	for i, name := range AllSections {
		s.Set(name, make([]byte, i+1))
	}
	for i, name := range AllSections {
		if len(s.Get(name)) != i+1 {
			t.Errorf("%s: expected %d bytes, got %d", name, i+1, len(s.Get(name)))
		}
	}
	if s.Get("unknown") != nil {
		t.Error("expected nil for unknown section")
	}
	if s.Size() != 21 {
		t.Errorf("expected total size 21, got %d", s.Size())
	}
}
