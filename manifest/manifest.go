// Package manifest handles pipes.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/pipes/translator"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "pipes.toml"

// Manifest represents a pipes.toml project configuration.
type Manifest struct {
	Translator Translator `toml:"translator"`
	Canvas     Canvas     `toml:"canvas"`

	// Dir is the directory containing the pipes.toml file (set at load time).
	Dir string `toml:"-"`
}

// Translator configures decoding.
type Translator struct {
	Source string `toml:"source"`
	Strict bool   `toml:"strict"`
}

// Canvas configures the encoder canvas. A zero dimension grows on demand.
type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Default returns the configuration used when no pipes.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a pipes.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Canvas.Width < 0 || m.Canvas.Height < 0 {
		return nil, fmt.Errorf("%s: canvas dimensions must not be negative", path)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a pipes.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Translator.Source == "" {
		m.Translator.Source = translator.DefaultSource
	}
}

// TranslatorConfig returns the translator settings of the manifest.
func (m *Manifest) TranslatorConfig() translator.Config {
	return translator.Config{
		Source:       m.Translator.Source,
		Strict:       m.Translator.Strict,
		CanvasWidth:  m.Canvas.Width,
		CanvasHeight: m.Canvas.Height,
	}
}
