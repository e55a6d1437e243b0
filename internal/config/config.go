// Package config provides configuration loading for perftop. Command-line
// flags always win; the config file only supplies defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFreq is the default sampling frequency in Hz.
	DefaultFreq = 1000
	// DefaultMmapPages is the default number of ring buffer data pages.
	DefaultMmapPages = 128
	// DefaultSort is the default histogram sort key list.
	DefaultSort = "comm,dso,symbol"

	defaultDir = ".perftop"
	configFile = "config.yaml"
)

// FileConfig holds the defaults loadable from the config file.
type FileConfig struct {
	// Freq is the sampling frequency in Hz.
	Freq int `yaml:"freq"`
	// MmapPages is the ring buffer size in data pages.
	MmapPages int `yaml:"mmap_pages"`
	// Sort is the comma-separated histogram sort key list.
	Sort string `yaml:"sort"`
	// Events are default event selectors, overridden by any -e flag.
	Events []string `yaml:"events"`
}

// Default returns the built-in defaults.
func Default() *FileConfig {
	return &FileConfig{
		Freq:      DefaultFreq,
		MmapPages: DefaultMmapPages,
		Sort:      DefaultSort,
	}
}

// Loader handles locating and loading the configuration file.
type Loader struct {
	baseDir string
}

// NewLoader creates a config loader. The base directory is resolved in this
// order:
//  1. PERFTOP_CONFIG environment variable.
//  2. User home directory (~/).
//  3. /tmp/perftop-fallback (environments without a home dir).
//
// The loader never returns an error; when no file exists Load returns the
// built-in defaults.
func NewLoader() *Loader {
	if baseDir := os.Getenv("PERFTOP_CONFIG"); baseDir != "" {
		return &Loader{baseDir: baseDir}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		return &Loader{baseDir: homeDir}
	}

	return &Loader{baseDir: "/tmp/perftop-fallback"}
}

// Path returns the path to the config file.
func (l *Loader) Path() string {
	return filepath.Join(l.baseDir, defaultDir, configFile)
}

// Load loads the configuration file, returning defaults if it doesn't exist.
func (l *Loader) Load() (*FileConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", l.Path(), err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", l.Path(), err)
	}

	// A file that zeroes a field falls back to the default; zero is not a
	// usable value for any of these.
	if cfg.Freq <= 0 {
		cfg.Freq = DefaultFreq
	}
	if cfg.MmapPages <= 0 {
		cfg.MmapPages = DefaultMmapPages
	}
	if cfg.Sort == "" {
		cfg.Sort = DefaultSort
	}

	return cfg, nil
}
