package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/vpet-sync/pkg/wire"
)

// Version errors.
var (
	ErrUnknownVersion  = errors.New("unknown scene version")
	ErrVersionMismatch = errors.New("node layout does not match scene version")
)

func knownVersion(v int32) bool {
	return v == LegacyVersion || v == CurrentVersion
}

// EncodeHeader encodes the fixed-size header record.
func EncodeHeader(h Header) []byte {
	w := wire.NewWriter(headerSize)
	w.Int32(h.Version)
	w.Float32(h.Scale)
	w.Float32(h.LightIntensityFactor)
	w.Int32(h.TextureBinaryType)
	w.Int32(h.SenderID)
	w.Int32(h.FrameRate)
	return w.Bytes()
}

// DecodeHeader decodes a header record. Extra trailing bytes are a framing
// error; an unsupported version is reported as ErrUnknownVersion.
func DecodeHeader(data []byte) (Header, error) {
	r := wire.NewReader(data)
	h := Header{
		Version:              r.Int32(),
		Scale:                r.Float32(),
		LightIntensityFactor: r.Float32(),
		TextureBinaryType:    r.Int32(),
		SenderID:             r.Int32(),
		FrameRate:            r.Int32(),
	}
	if err := r.Err(); err != nil {
		return Header{}, err
	}
	if !r.Done() {
		return Header{}, fmt.Errorf("%w: %d trailing header bytes", wire.ErrFraming, r.Remaining())
	}
	if !knownVersion(h.Version) {
		return Header{}, fmt.Errorf("%w: %d", ErrUnknownVersion, h.Version)
	}
	return h, nil
}
