package scene

import (
	"fmt"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// EncodeTextures encodes texture packages: width, height, format, then
// length-prefixed pixel bytes.
func EncodeTextures(textures []TexturePackage) []byte {
	size := 0
	for _, t := range textures {
		size += 4*wire.WordSize + len(t.Pixels)
	}
	w := wire.NewWriter(size)
	for _, t := range textures {
		w.Int32(t.Width)
		w.Int32(t.Height)
		w.Int32(int32(t.Format))
		w.ByteArray(t.Pixels)
	}
	return w.Bytes()
}

// DecodeTextures decodes a texture section.
func DecodeTextures(data []byte) ([]TexturePackage, error) {
	r := wire.NewReader(data)
	var textures []TexturePackage
	for !r.Done() {
		start := r.Offset()
		t := TexturePackage{
			Width:  r.Int32(),
			Height: r.Int32(),
			Format: TextureFormat(r.Int32()),
			Pixels: r.ByteArray(),
		}
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("texture %d at offset %d: %w", len(textures), start, err)
		}
		textures = append(textures, t)
	}
	return textures, nil
}

// BytesPerPixel returns the size of one pixel for uncompressed formats,
// or 0 for block-compressed ones.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA32:
		return 4
	case FormatRGB24:
		return 3
	case FormatAlpha8:
		return 1
	default:
		return 0
	}
}
