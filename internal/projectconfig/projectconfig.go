// Package projectconfig loads the optional quark.yaml project file
// (SPEC_FULL.md §1.1), supplying default flag values so a project's
// command line doesn't have to repeat its cache directory,
// optimization level, or library search paths on every invocation.
package projectconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is quark.yaml's schema. Every field is optional; an absent
// field leaves the CLI's own default in place.
type Config struct {
	CacheDir          string   `yaml:"cache_dir"`
	OptimizationLevel *int     `yaml:"optimization_level"`
	LibraryPaths      []string `yaml:"library_paths"`
	Libraries         []string `yaml:"libraries"`
	Freestanding      bool     `yaml:"freestanding"`
	ModulesDir        string   `yaml:"modules_dir"`
}

// FileName is the fixed project config filename, looked for in the
// project root (the nearest ancestor directory containing one).
const FileName = "quark.yaml"

// Load reads dir/quark.yaml. A missing file is not an error: it
// returns a zero Config so callers fall back to built-in defaults.
func Load(dir string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", FileName, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir looking for quark.yaml, loading
// the first one found. Reaching the filesystem root with none present
// is not an error.
func FindAndLoad(startDir string) (Config, error) {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Config{}, nil
		}
		dir = parent
	}
}
