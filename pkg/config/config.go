package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/presage-dev/presage/internal/pathmatch"
)

// Config holds all configuration options for presage. The toml tags keep
// files written by `presage init` loadable by the koanf toml parser.
type Config struct {
	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Bounded fetch settings
	Fetch FetchConfig `koanf:"fetch" toml:"fetch"`

	// Analyzer toggles and thresholds
	Analyzers AnalyzerConfig `koanf:"analyzers" toml:"analyzers"`

	// Rule weights for flag scoring, keyed by rule key
	Rules map[string]float64 `koanf:"rules" toml:"rules"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `koanf:"enabled" toml:"enabled"`
	Dir        string `koanf:"dir" toml:"dir"`
	MaxAgeDays int    `koanf:"max_age_days" toml:"max_age_days"`
}

// FetchConfig controls concurrent content fetching.
type FetchConfig struct {
	Concurrency int `koanf:"concurrency" toml:"concurrency"` // <= 0 means unbounded
}

// AnalyzerConfig controls which analyzers run and their thresholds.
type AnalyzerConfig struct {
	Deps            bool     `koanf:"deps" toml:"deps"`
	Surface         bool     `koanf:"surface" toml:"surface"`
	SurfaceMaxLines int      `koanf:"surface_max_lines" toml:"surface_max_lines"`
	SurfaceMaxFiles int      `koanf:"surface_max_files" toml:"surface_max_files"`
	DepsExcludes    []string `koanf:"deps_excludes" toml:"deps_excludes,omitempty"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, yaml, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        ".presage/cache",
			MaxAgeDays: 30,
		},
		Fetch: FetchConfig{
			Concurrency: 8,
		},
		Analyzers: AnalyzerConfig{
			Deps:            true,
			Surface:         true,
			SurfaceMaxLines: 400,
			SurfaceMaxFiles: 20,
		},
		Rules: map[string]float64{
			"dependency-risk": 0.5,
			"large-surface":   0.4,
			"route-surface":   0.6,
			"secret-leak":     0.9,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, merged over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindDefault returns the first config file present in the standard
// search locations, or "" when none exists.
func FindDefault() string {
	configNames := []string{
		"presage.toml",
		"presage.yaml",
		"presage.yml",
		"presage.json",
		".presage.toml",
		".presage.yaml",
		".presage.yml",
		".presage.json",
	}

	searchDirs := []string{".", ".presage"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := FindDefault(); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

var validFormats = map[string]bool{
	"text":     true,
	"json":     true,
	"markdown": true,
	"yaml":     true,
	"toon":     true,
}

// Validate rejects configurations that would corrupt a run. It runs
// before any cache directory is created or touched.
func (c *Config) Validate() error {
	if c.Cache.MaxAgeDays < 0 {
		return fmt.Errorf("cache.max_age_days must be >= 0, got %d", c.Cache.MaxAgeDays)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set when the cache is enabled")
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format %q is not one of text, json, markdown, yaml, toon", c.Output.Format)
	}
	if _, err := pathmatch.Compile(c.Analyzers.DepsExcludes); err != nil {
		return fmt.Errorf("analyzers.deps_excludes: %w", err)
	}
	if c.Analyzers.SurfaceMaxLines <= 0 {
		return fmt.Errorf("analyzers.surface_max_lines must be > 0, got %d", c.Analyzers.SurfaceMaxLines)
	}
	if c.Analyzers.SurfaceMaxFiles <= 0 {
		return fmt.Errorf("analyzers.surface_max_files must be > 0, got %d", c.Analyzers.SurfaceMaxFiles)
	}
	for rule, weight := range c.Rules {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("rules.%s weight must be within [0, 1], got %g", rule, weight)
		}
	}
	return nil
}
