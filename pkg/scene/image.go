package scene

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"io"
	"os"

	_ "golang.org/x/image/bmp" // BMP decoder registration
)

// TextureFromImage converts an image to an RGBA32 texture package.
func TextureFromImage(img image.Image) TexturePackage {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	pixels := make([]byte, len(rgba.Pix))
	copy(pixels, rgba.Pix)

	return TexturePackage{
		Width:  int32(bounds.Dx()),
		Height: int32(bounds.Dy()),
		Format: FormatRGBA32,
		Pixels: pixels,
	}
}

// DecodeTexture reads a PNG, JPEG or BMP image into an RGBA32 texture.
func DecodeTexture(r io.Reader) (TexturePackage, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TexturePackage{}, fmt.Errorf("decoding texture image: %w", err)
	}
	return TextureFromImage(img), nil
}

// LoadTextureFile reads a texture image from disk.
func LoadTextureFile(path string) (TexturePackage, error) {
	f, err := os.Open(path)
	if err != nil {
		return TexturePackage{}, err
	}
	defer f.Close()
	return DecodeTexture(f)
}
