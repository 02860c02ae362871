package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSaveLoadSections(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scene")

	sections, err := NewCodec(nil).Encode(sampleScene())
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveSections(dir, sections); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadSections(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, sections) {
		t.Error("loaded sections differ from saved ones")
	}
}

func TestLoadSectionsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SectionFile(SectionHeader)), EncodeHeader(DefaultHeader()), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadSections(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Header) != headerSize {
		t.Errorf("expected header to load, got %d bytes", len(loaded.Header))
	}
	if loaded.Nodes != nil || loaded.Materials != nil {
		t.Error("missing section files should load as empty")
	}
}

func TestLoadSectionsNotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSections(file); err == nil {
		t.Error("expected error for non-directory")
	}
	if _, err := LoadSections(filepath.Join(file, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDecodeTexturePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	tex, err := DecodeTexture(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width != 2 || tex.Height != 1 || tex.Format != FormatRGBA32 {
		t.Errorf("unexpected texture header: %+v", tex)
	}
	want := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	if !bytes.Equal(tex.Pixels, want) {
		t.Errorf("expected pixels %v, got %v", want, tex.Pixels)
	}
	if len(tex.Pixels) != int(tex.Width*tex.Height)*tex.Format.BytesPerPixel() {
		t.Error("pixel buffer size does not match dimensions")
	}
}

func TestDecodeTextureInvalid(t *testing.T) {
	if _, err := DecodeTexture(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for invalid image data")
	}
}
