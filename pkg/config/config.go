// Package config loads almanack configuration from TOML, YAML or JSON files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for almanack.
type Config struct {
	// Entropy settings for history complexity computation
	Entropy EntropyConfig `koanf:"entropy"`

	// Batch settings for multi-repository processing
	Batch BatchConfig `koanf:"batch"`

	// Cache settings
	Cache CacheConfig `koanf:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// EntropyConfig controls the history complexity metric.
type EntropyConfig struct {
	// DecayFactor is the exponential decay scale in hours.
	DecayFactor float64 `koanf:"decay_factor"`
	// QuietTimeSeconds is the burst-period boundary gap.
	QuietTimeSeconds int64 `koanf:"quiet_time_seconds"`
}

// BatchConfig controls multi-repository batch runs.
type BatchConfig struct {
	// Workers is the fixed worker pool size; 0 uses the processor default.
	Workers int `koanf:"workers"`
	// KeepClones leaves cloned repositories on disk after processing.
	KeepClones bool `koanf:"keep_clones"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Entropy: EntropyConfig{
			DecayFactor:      10.0,
			QuietTimeSeconds: 3600,
		},
		Batch: BatchConfig{
			Workers:    0,
			KeepClones: false,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".almanack/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
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

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"almanack.toml",
		"almanack.yaml",
		"almanack.yml",
		"almanack.json",
		".almanack.toml",
		".almanack.yaml",
		".almanack.yml",
		".almanack.json",
	}

	// Search in current directory and .almanack directory
	searchDirs := []string{".", ".almanack"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}
