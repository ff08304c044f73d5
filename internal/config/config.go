// Package config loads waspy.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"waspy/internal/codegen"
	"waspy/internal/stdlib"
)

// FileName is the manifest looked up from the working directory upwards.
const FileName = "waspy.toml"

// maxPages is the wasm32 limit of 4 GiB.
const maxPages = 65536

type Config struct {
	// Path is the manifest the config was read from, empty for defaults.
	Path    string         `toml:"-"`
	Package PackageConfig  `toml:"package"`
	Build   BuildConfig    `toml:"build"`
	Shim    []stdlib.Entry `toml:"shim"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	MemoryPages    uint32 `toml:"memory_pages"`
	MaxMemoryPages uint32 `toml:"max_memory_pages"`
	MaxLocals      int    `toml:"max_locals"`
	DebugNames     bool   `toml:"debug_names"`
	Metadata       bool   `toml:"metadata"`
	Start          bool   `toml:"start"`
	// Entry makes __name__ equal "__main__"; otherwise it is the package name.
	Entry bool `toml:"entry"`
}

// Default returns the configuration used without a manifest.
func Default() Config {
	return Config{
		Build: BuildConfig{
			MemoryPages:    2,
			MaxMemoryPages: 256,
			MaxLocals:      50000,
			DebugNames:     true,
			Metadata:       true,
			Start:          true,
			Entry:          true,
		},
	}
}

// Find walks from startDir to the filesystem root looking for waspy.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path over the defaults. Keys that are not part of the format
// are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.check(meta); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes manifest text; used for inline configuration and tests.
func Parse(text string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := cfg.check(meta); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadNear loads the manifest governing dir, or the defaults when there is none.
func LoadNear(dir string) (Config, error) {
	path, ok, err := Find(dir)
	if err != nil || !ok {
		return Default(), err
	}
	return Load(path)
}

func (c *Config) check(meta toml.MetaData) error {
	var errs []error
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		errs = append(errs, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", ")))
	}
	if meta.IsDefined("package", "name") && strings.TrimSpace(c.Package.Name) == "" {
		errs = append(errs, errors.New("[package].name must not be empty"))
	}
	b := c.Build
	if b.MemoryPages == 0 {
		errs = append(errs, errors.New("[build].memory_pages must be at least 1"))
	}
	if b.MaxMemoryPages < b.MemoryPages || b.MaxMemoryPages > maxPages {
		errs = append(errs, fmt.Errorf("[build].max_memory_pages must be in %d..%d", b.MemoryPages, maxPages))
	}
	if b.MaxLocals <= 0 {
		errs = append(errs, errors.New("[build].max_locals must be positive"))
	}
	for i, e := range c.Shim {
		if e.Module == "" || e.Name == "" {
			errs = append(errs, fmt.Errorf("[[shim]] #%d: module and name are required", i+1))
		}
	}
	return errors.Join(errs...)
}

// Codegen converts the build table to generator options.
func (b BuildConfig) Codegen() codegen.Options {
	return codegen.Options{
		MemoryPages:    b.MemoryPages,
		MaxMemoryPages: b.MaxMemoryPages,
		MaxLocals:      b.MaxLocals,
		DebugNames:     b.DebugNames,
		Metadata:       b.Metadata,
		Start:          b.Start,
	}
}

// Registry returns the built-in shim contract extended by [[shim]] entries,
// frozen and ready for concurrent resolution.
func (c *Config) Registry() (*stdlib.Registry, error) {
	r := stdlib.Default()
	if err := r.AddEntries(c.Shim); err != nil {
		return nil, err
	}
	return r.Freeze(), nil
}

// MainName is the value of __name__ for a module called name.
func (c *Config) MainName(name string) string {
	if c.Build.Entry {
		return "__main__"
	}
	if c.Package.Name != "" {
		return c.Package.Name
	}
	return name
}
