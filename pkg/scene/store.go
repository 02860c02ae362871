package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SectionFile returns the file name used for a section inside a scene
// directory.
func SectionFile(name SectionName) string {
	return string(name) + ".bin"
}

// SaveSections writes one file per section into dir, creating it if needed.
func SaveSections(dir string, s *Sections) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range AllSections {
		path := filepath.Join(dir, SectionFile(name))
		if err := os.WriteFile(path, s.Get(name), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// LoadSections reads the section files from dir. Missing files load as
// empty sections.
func LoadSections(dir string) (*Sections, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	s := &Sections{}
	for _, name := range AllSections {
		path := filepath.Join(dir, SectionFile(name))
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		s.Set(name, data)
	}
	return s, nil
}
