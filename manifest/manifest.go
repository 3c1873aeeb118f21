// Package manifest handles mirrow.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/mirrow/compiler"
	"github.com/chazu/mirrow/vm"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "mirrow.toml"

// Manifest represents a mirrow.toml project configuration.
type Manifest struct {
	Project Project  `toml:"project"`
	VM      VMConfig `toml:"vm"`
	Legacy  Legacy   `toml:"legacy"`

	// Dir is the directory containing the mirrow.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

// VMConfig configures collector pacing and runtime limits. Zero values
// take the VM defaults.
type VMConfig struct {
	GCCheckInterval int `toml:"gc-check-interval"`
	GCThreshold     int `toml:"gc-threshold"`
	GCHistory       int `toml:"gc-history"`
	MaxInlineString int `toml:"max-inline-string"`
	MaxFrames       int `toml:"max-frames"`
}

// Legacy enables historical compiler and runtime behaviours.
type Legacy struct {
	DynamicScoping   bool `toml:"dynamic-scoping"`
	NarrowEquality   bool `toml:"narrow-equality"`
	FlattenArrays    bool `toml:"flatten-arrays"`
	IgnoreStackRoots bool `toml:"ignore-stack-roots"`
	ImplicitBindings bool `toml:"implicit-bindings"`
}

// Load parses a mirrow.toml file from the given directory.
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
		return nil, fmt.Errorf("parse error in %s: unknown key %s", path, undecoded[0])
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Project.Entry == "" {
		m.Project.Entry = "main.n"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a mirrow.toml file,
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

func (m *Manifest) validate() error {
	fields := []struct {
		name string
		v    int
	}{
		{"vm.gc-check-interval", m.VM.GCCheckInterval},
		{"vm.gc-threshold", m.VM.GCThreshold},
		{"vm.gc-history", m.VM.GCHistory},
		{"vm.max-inline-string", m.VM.MaxInlineString},
		{"vm.max-frames", m.VM.MaxFrames},
	}
	for _, f := range fields {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", f.name, f.v)
		}
	}
	return nil
}

// VMConfig returns the runtime configuration described by the manifest.
// A nil manifest yields the defaults.
func (m *Manifest) VMConfig() vm.Config {
	cfg := vm.DefaultConfig()
	if m == nil {
		return cfg
	}
	if m.VM.GCCheckInterval > 0 {
		cfg.GCCheckInterval = m.VM.GCCheckInterval
	}
	if m.VM.GCThreshold > 0 {
		cfg.GCThreshold = m.VM.GCThreshold
	}
	if m.VM.GCHistory > 0 {
		cfg.GCHistorySize = m.VM.GCHistory
	}
	if m.VM.MaxInlineString > 0 {
		cfg.MaxInlineString = m.VM.MaxInlineString
	}
	if m.VM.MaxFrames > 0 {
		cfg.MaxFrames = m.VM.MaxFrames
	}
	cfg.Legacy = vm.Legacy{
		DynamicScoping:   m.Legacy.DynamicScoping,
		NarrowEquality:   m.Legacy.NarrowEquality,
		FlattenArrays:    m.Legacy.FlattenArrays,
		IgnoreStackRoots: m.Legacy.IgnoreStackRoots,
	}
	return cfg
}

// CompilerOptions returns the compiler options described by the manifest.
func (m *Manifest) CompilerOptions() compiler.Options {
	if m == nil {
		return compiler.Options{}
	}
	return compiler.Options{
		ImplicitBindings: m.Legacy.ImplicitBindings,
		DynamicScoping:   m.Legacy.DynamicScoping,
	}
}

// EntryPath returns the absolute path of the project's entry file.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Project.Entry) {
		return m.Project.Entry
	}
	return filepath.Join(m.Dir, m.Project.Entry)
}
