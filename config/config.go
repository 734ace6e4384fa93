// Package config loads lickset settings from a TOML file.
//
// Defaults come from datasets.DefaultConfig, values in the file override them
// and command-line flags override the file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Noofbiz/lickset/datasets"
)

//go:embed sample_config.toml
var sampleConfig string

// Output names the artifacts a build writes. Empty paths disable them.
type Output struct {
	CachePath    string `toml:"cache_path"`
	ManifestPath string `toml:"manifest_path"`
	PlotsDir     string `toml:"plots_dir"`
	SummaryCSV   string `toml:"summary_csv"`
}

// Config is the content of a lickset configuration file.
type Config struct {
	Dataset datasets.Config `toml:"dataset"`
	Output  Output          `toml:"output"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Dataset: datasets.DefaultConfig()}
}

// Load reads path on top of Default. A missing file is not an error; the
// second return value reports whether the file existed.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	exists := false
	if strings.TrimSpace(path) != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			exists = true
			if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
				return nil, false, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

func (c *Config) normalize() {
	c.Dataset.Normalize()
	c.Output.CachePath = cleanPath(c.Output.CachePath)
	c.Output.ManifestPath = cleanPath(c.Output.ManifestPath)
	c.Output.PlotsDir = cleanPath(c.Output.PlotsDir)
	c.Output.SummaryCSV = cleanPath(c.Output.SummaryCSV)
}

// Validate checks the dataset section and that no two outputs share a path.
func (c *Config) Validate() error {
	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	seen := make(map[string]string)
	outputs := []struct{ name, path string }{
		{"output.cache_path", c.Output.CachePath},
		{"output.manifest_path", c.Output.ManifestPath},
		{"output.plots_dir", c.Output.PlotsDir},
		{"output.summary_csv", c.Output.SummaryCSV},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if prev, ok := seen[o.path]; ok {
			return fmt.Errorf("%s and %s both point to %s", prev, o.name, o.path)
		}
		seen[o.path] = o.name
	}
	return nil
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
