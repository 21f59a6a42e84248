// Package manifest handles bridge.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a bridge.toml project configuration.
type Manifest struct {
	Project  Project  `toml:"project"`
	Source   Source   `toml:"source"`
	Output   Output   `toml:"output"`
	Generate Generate `toml:"generate"`

	// Dir is the directory containing the bridge.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Source configures where annotated bridge packages live.
type Source struct {
	Dir string `toml:"dir"`
}

// Output configures the emitted artifact and the generation cache.
type Output struct {
	File  string `toml:"file"`
	Cache string `toml:"cache"`
}

// Generate configures expansion behavior.
type Generate struct {
	SkipValidation bool   `toml:"skip-validation"`
	Exception      string `toml:"exception"` // default exception class, dotted form
	Message        string `toml:"message"`   // default exception message
}

// Load parses a bridge.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "bridge.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Source.Dir == "" {
		m.Source.Dir = "bridge"
	}
	if m.Output.File == "" {
		m.Output.File = "bridge_gen.go"
	}
	if m.Output.Cache == "" {
		m.Output.Cache = filepath.Join(".hostbridge", "cache.db")
	}
	return &m, nil
}

// FindAndLoad walks up from dir looking for a bridge.toml. Returns nil (no
// error) when none is found before the filesystem root.
func FindAndLoad(dir string) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(filepath.Join(abs, "bridge.toml")); err == nil {
			return Load(abs)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return nil, nil
		}
		abs = parent
	}
}

// SourcePath returns the absolute path of the annotated package directory.
func (m *Manifest) SourcePath() string {
	return filepath.Join(m.Dir, m.Source.Dir)
}

// OutputPath returns the absolute path of the emitted file.
func (m *Manifest) OutputPath() string {
	if filepath.IsAbs(m.Output.File) {
		return m.Output.File
	}
	return filepath.Join(m.Dir, m.Output.File)
}

// CachePath returns the absolute path of the generation cache database.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Output.Cache) {
		return m.Output.Cache
	}
	return filepath.Join(m.Dir, m.Output.Cache)
}
