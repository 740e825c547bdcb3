// Package config handles hetmat run configuration.
//
// Configuration loads from a YAML file, then HETMAT_* environment
// variables override individual fields, so deployment workflows can
// pin a file and still tune a run from the shell. Validate before use.
//
// Example Usage:
//
//	cfg, err := config.Load("run.yaml")
//	if err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
// Environment Variables:
//   - HETMAT_NODES / HETMAT_EDGES: node and edge table paths
//   - HETMAT_START_KIND / HETMAT_END_KIND: metanode kinds
//   - HETMAT_MAX_LENGTH: metapath length bound
//   - HETMAT_W: degree dampening exponent
//   - HETMAT_WORKERS: parallel workers for counting
//   - HETMAT_METAPATHS: precomputed metapath catalog path
//   - HETMAT_CACHE_DIR: weighted-matrix cache directory
//   - HETMAT_PERMUTE_MULTIPLIER / HETMAT_PERMUTE_SEED: swap attempts
//     per edge and random seed
//   - HETMAT_PERMUTE_EXCLUDED: edge table of pairs to exclude
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds one extraction or permutation run's settings.
type Config struct {
	// Nodes and Edges are the input table paths.
	Nodes string `yaml:"nodes"`
	Edges string `yaml:"edges"`

	// StartKind and EndKind are the metanode kinds features run
	// between.
	StartKind string `yaml:"start_kind"`
	EndKind   string `yaml:"end_kind"`

	// MaxLength bounds metapath enumeration.
	MaxLength int `yaml:"max_length"`

	// W is the degree dampening exponent, in [0, 1].
	W float64 `yaml:"w"`

	// Workers sets counting parallelism; 0 means all CPUs.
	Workers int `yaml:"workers"`

	// Metapaths optionally names a precomputed catalog file that
	// substitutes enumeration.
	Metapaths string `yaml:"metapaths"`

	// CacheDir optionally enables the persistent weighted-matrix cache.
	CacheDir string `yaml:"cache_dir"`

	// Permute holds permutation settings.
	Permute PermuteConfig `yaml:"permute"`
}

// PermuteConfig holds permutation run settings.
type PermuteConfig struct {
	// Multiplier governs swap attempts: attempts = edges × multiplier.
	Multiplier float64 `yaml:"multiplier"`
	// Seed fixes the random source for reproducible null networks.
	Seed int64 `yaml:"seed"`
	// Excluded optionally names an edge table whose pairs must never
	// appear in permuted output (e.g. held-out test edges).
	Excluded string `yaml:"excluded"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		StartKind: "Compound",
		EndKind:   "Disease",
		MaxLength: 4,
		W:         0.4,
		Workers:   runtime.NumCPU(),
		Permute: PermuteConfig{
			Multiplier: 10,
		},
	}
}

// Load reads a YAML file over the defaults, applies HETMAT_* overrides
// and validates. An empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from HETMAT_* environment variables.
func (c *Config) applyEnv() {
	c.Nodes = getEnv("HETMAT_NODES", c.Nodes)
	c.Edges = getEnv("HETMAT_EDGES", c.Edges)
	c.StartKind = getEnv("HETMAT_START_KIND", c.StartKind)
	c.EndKind = getEnv("HETMAT_END_KIND", c.EndKind)
	c.MaxLength = getEnvInt("HETMAT_MAX_LENGTH", c.MaxLength)
	c.W = getEnvFloat("HETMAT_W", c.W)
	c.Workers = getEnvInt("HETMAT_WORKERS", c.Workers)
	c.Metapaths = getEnv("HETMAT_METAPATHS", c.Metapaths)
	c.CacheDir = getEnv("HETMAT_CACHE_DIR", c.CacheDir)
	c.Permute.Multiplier = getEnvFloat("HETMAT_PERMUTE_MULTIPLIER", c.Permute.Multiplier)
	c.Permute.Seed = int64(getEnvInt("HETMAT_PERMUTE_SEED", int(c.Permute.Seed)))
	c.Permute.Excluded = getEnv("HETMAT_PERMUTE_EXCLUDED", c.Permute.Excluded)
}

// Validate checks field ranges before a run starts.
func (c *Config) Validate() error {
	if c.W < 0 || c.W > 1 {
		return fmt.Errorf("config: dampening exponent w must be in [0, 1], got %v", c.W)
	}
	if c.MaxLength < 1 {
		return fmt.Errorf("config: max_length must be at least 1, got %d", c.MaxLength)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	if c.Permute.Multiplier < 0 {
		return fmt.Errorf("config: permute multiplier must not be negative, got %v", c.Permute.Multiplier)
	}
	return nil
}

// String returns a representation safe for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{%s→%s, max_length: %d, w: %v, workers: %d}",
		c.StartKind, c.EndKind, c.MaxLength, c.W, c.Workers)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
