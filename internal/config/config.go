// Package config provides configuration for the rcskit tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"rcskit/diff"
	"rcskit/rcs/keyword"
)

// Config holds tool configuration.
type Config struct {
	// Author is recorded on new revisions. Defaults to $USER.
	Author string `yaml:"author"`
	// Store is the path of the SQLite archive store. When set, archives
	// live in the store instead of ",v" files.
	Store string `yaml:"store"`
	// Expand is the default keyword expansion mode for new archives.
	Expand string `yaml:"expand"`
	// Algorithm names the diff algorithm ("myers" or "simple").
	Algorithm string `yaml:"algorithm"`
	// Rules is an optional YAML file of per-path expansion rules.
	Rules string `yaml:"rules"`
	// Suffix is appended to a working file name to form its archive name.
	Suffix string `yaml:"suffix"`
	// Context is the number of context lines in unified diffs.
	Context int `yaml:"context"`
	// Workers bounds how many files ci processes at once.
	Workers int `yaml:"workers"`
	// LockTimeout is how long to wait for the store's write lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`
	// Debug enables debug logging.
	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Author:      getEnv("USER", "unknown"),
		Algorithm:   "myers",
		Suffix:      ",v",
		Context:     diff.DefaultContext,
		Workers:     4,
		LockTimeout: 5 * time.Second,
	}
}

// DefaultStore is the store the store commands use when none is configured.
const DefaultStore = "rcskit.db"

// StorePath returns Store, or DefaultStore when it is unset.
func (c *Config) StorePath() string {
	if c.Store == "" {
		return DefaultStore
	}
	return c.Store
}

// FromEnv creates a Config from environment variables.
func FromEnv() *Config {
	return applyEnv(Default())
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. An empty path is the same as FromEnv.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) *Config {
	cfg.Author = getEnv("RCSKIT_AUTHOR", cfg.Author)
	cfg.Store = getEnv("RCSKIT_STORE", cfg.Store)
	cfg.Expand = getEnv("RCSKIT_EXPAND", cfg.Expand)
	cfg.Algorithm = getEnv("RCSKIT_ALGORITHM", cfg.Algorithm)
	cfg.Rules = getEnv("RCSKIT_RULES", cfg.Rules)
	cfg.Suffix = getEnv("RCSKIT_SUFFIX", cfg.Suffix)
	cfg.Context = getEnvInt("RCSKIT_CONTEXT", cfg.Context)
	cfg.Workers = getEnvInt("RCSKIT_WORKERS", cfg.Workers)
	cfg.LockTimeout = getEnvDuration("RCSKIT_LOCK_TIMEOUT", cfg.LockTimeout)
	cfg.Debug = getEnvBool("RCSKIT_DEBUG", cfg.Debug)
	return cfg
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Author == "" {
		errs = append(errs, errors.New("author must not be empty"))
	}
	if !keyword.ValidMode(c.Expand) {
		errs = append(errs, fmt.Errorf("unknown expansion mode %q", c.Expand))
	}
	if _, err := diff.ByName(c.Algorithm); err != nil {
		errs = append(errs, err)
	}
	if c.Suffix == "" {
		errs = append(errs, errors.New("suffix must not be empty"))
	}
	if c.Context < 0 {
		errs = append(errs, fmt.Errorf("context must not be negative, got %d", c.Context))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
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

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
