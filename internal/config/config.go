// Package config loads gendoc settings from a YAML file and GENDOC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// FileNames are searched in order by LoadFromDir.
var FileNames = []string{".gendoc.yaml", ".gendoc.yml", "gendoc.yaml"}

// Config holds settings shared by generation, watch mode and the server.
type Config struct {
	// Private renders functions whose names start with an underscore.
	Private bool `yaml:"private"`
	// Format is "markdown" or "html".
	Format  string   `yaml:"format"`
	Exclude []string `yaml:"exclude"`
	// IgnoreFile replaces .gitignore as the ignore pattern source.
	IgnoreFile string `yaml:"ignore_file"`
	Workers    int    `yaml:"workers"`
	// DropTrailingBlock discards the final docstring block, as older
	// releases did.
	DropTrailingBlock bool        `yaml:"drop_trailing_block"`
	Serve             ServeConfig `yaml:"serve"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultWorkers bounds parallel file generation.
const DefaultWorkers = 4

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Format:  "markdown",
		Workers: DefaultWorkers,
		Serve:   ServeConfig{Addr: ":8090"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads the first of FileNames present in dir. It returns the
// defaults and an empty path when none exists.
func LoadFromDir(dir string) (*Config, string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	return Default(), "", nil
}

// ApplyEnv overrides fields from GENDOC_* variables. Unparseable numeric or
// boolean values are ignored.
func (c *Config) ApplyEnv() {
	c.Private = envBool("GENDOC_PRIVATE", c.Private)
	c.Format = envOr("GENDOC_FORMAT", c.Format)
	c.IgnoreFile = envOr("GENDOC_IGNORE_FILE", c.IgnoreFile)
	c.Workers = envInt("GENDOC_WORKERS", c.Workers)
	c.DropTrailingBlock = envBool("GENDOC_DROP_TRAILING_BLOCK", c.DropTrailingBlock)
	c.Serve.Addr = envOr("GENDOC_ADDR", c.Serve.Addr)
	if v := os.Getenv("GENDOC_EXCLUDE"); v != "" {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Exclude = append(c.Exclude, p)
			}
		}
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "md", "markdown", "html":
	default:
		return fmt.Errorf("%w: format %q must be markdown or html", ErrInvalid, c.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.Serve.Addr == "" {
		return fmt.Errorf("%w: serve.addr is required", ErrInvalid)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
