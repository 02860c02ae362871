package scene

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SectionName identifies one of the independently framed scene buffers.
type SectionName string

const (
	SectionHeader     SectionName = "header"
	SectionNodes      SectionName = "nodes"
	SectionObjects    SectionName = "objects"
	SectionCharacters SectionName = "characters"
	SectionTextures   SectionName = "textures"
	SectionMaterials  SectionName = "materials"
)

// AllSections lists the sections in their conventional transmission order.
var AllSections = []SectionName{
	SectionHeader,
	SectionNodes,
	SectionObjects,
	SectionCharacters,
	SectionTextures,
	SectionMaterials,
}

// Sections holds the encoded buffers of a scene.
type Sections struct {
	Header     []byte
	Nodes      []byte
	Objects    []byte
	Characters []byte
	Textures   []byte
	Materials  []byte
}

// Get returns the buffer of the named section, or nil for an unknown name.
func (s *Sections) Get(name SectionName) []byte {
	switch name {
	case SectionHeader:
		return s.Header
	case SectionNodes:
		return s.Nodes
	case SectionObjects:
		return s.Objects
	case SectionCharacters:
		return s.Characters
	case SectionTextures:
		return s.Textures
	case SectionMaterials:
		return s.Materials
	}
	return nil
}

// Set stores the buffer of the named section. Unknown names are ignored.
func (s *Sections) Set(name SectionName, data []byte) {
	switch name {
	case SectionHeader:
		s.Header = data
	case SectionNodes:
		s.Nodes = data
	case SectionObjects:
		s.Objects = data
	case SectionCharacters:
		s.Characters = data
	case SectionTextures:
		s.Textures = data
	case SectionMaterials:
		s.Materials = data
	}
}

// Size returns the total byte size of all sections.
func (s *Sections) Size() int {
	total := 0
	for _, name := range AllSections {
		total += len(s.Get(name))
	}
	return total
}

// SectionError reports a section that failed to decode. The section yields
// no entities.
type SectionError struct {
	Section SectionName
	Err     error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("decoding %s section: %v", e.Section, e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Codec converts scenes to and from their section buffers.
type Codec struct {
	log *zap.Logger
}

// NewCodec returns a codec that reports warnings to log. A nil logger
// discards them.
func NewCodec(log *zap.Logger) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	return &Codec{log: log}
}

// Encode encodes every section of s. Nodes must use the layout of the header
// version.
func (c *Codec) Encode(s *Scene) (*Sections, error) {
	if !knownVersion(s.Header.Version) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, s.Header.Version)
	}

	nodes, err := EncodeNodes(s.Nodes, s.Header.Version, c.log)
	if err != nil {
		return nil, fmt.Errorf("encoding nodes: %w", err)
	}

	return &Sections{
		Header:     EncodeHeader(s.Header),
		Nodes:      nodes,
		Objects:    EncodeObjects(s.Objects),
		Characters: EncodeCharacters(s.Characters, c.log),
		Textures:   EncodeTextures(s.Textures),
		Materials:  EncodeMaterials(s.Materials),
	}, nil
}

// Decode decodes all sections. A missing or empty section decodes to an
// empty list with a warning. A section that fails to decode is left empty and
// its *SectionError is included in the returned error; the other sections
// are still decoded. An unknown header version aborts the whole decode.
func (c *Codec) Decode(in *Sections) (*Scene, error) {
	s := &Scene{Header: DefaultHeader()}
	if in == nil {
		in = &Sections{}
	}

	if len(in.Header) == 0 {
		c.log.Warn("empty scene section, using default header",
			zap.String("section", string(SectionHeader)),
			zap.Int32("version", s.Header.Version))
	} else {
		h, err := DecodeHeader(in.Header)
		if err != nil {
			return nil, &SectionError{Section: SectionHeader, Err: err}
		}
		s.Header = h
	}

	var errs []error
	decode := func(name SectionName, fn func([]byte) error) {
		data := in.Get(name)
		if len(data) == 0 {
			c.log.Warn("empty scene section", zap.String("section", string(name)))
			return
		}
		if err := fn(data); err != nil {
			c.log.Error("scene section failed to decode",
				zap.String("section", string(name)),
				zap.Int("bytes", len(data)),
				zap.Error(err))
			errs = append(errs, &SectionError{Section: name, Err: err})
		}
	}

	decode(SectionNodes, func(b []byte) (err error) {
		s.Nodes, err = DecodeNodes(b, s.Header.Version)
		return err
	})
	decode(SectionObjects, func(b []byte) (err error) {
		s.Objects, err = DecodeObjects(b)
		return err
	})
	decode(SectionCharacters, func(b []byte) (err error) {
		s.Characters, err = DecodeCharacters(b)
		return err
	})
	decode(SectionTextures, func(b []byte) (err error) {
		s.Textures, err = DecodeTextures(b)
		return err
	})
	decode(SectionMaterials, func(b []byte) (err error) {
		s.Materials, err = DecodeMaterials(b)
		return err
	})

	c.log.Debug("scene decoded",
		zap.Int32("version", s.Header.Version),
		zap.Int("nodes", len(s.Nodes)),
		zap.Int("objects", len(s.Objects)),
		zap.Int("characters", len(s.Characters)),
		zap.Int("textures", len(s.Textures)),
		zap.Int("materials", len(s.Materials)))

	return s, errors.Join(errs...)
}
