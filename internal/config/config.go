// Package config loads pathbench settings from the embedded defaults merged
// with an optional user YAML file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pathbench/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// FileName is the user config file name inside the config directory.
const FileName = "config.yaml"

type Schema struct {
	MaxDepth int `yaml:"maxDepth" json:"maxDepth"`
}

type Export struct {
	MaxDepth          int  `yaml:"maxDepth" json:"maxDepth"`
	IncludeRowNumbers bool `yaml:"includeRowNumbers" json:"includeRowNumbers"`
}

type Search struct {
	CaseSensitive bool `yaml:"caseSensitive" json:"caseSensitive"`
}

type Store struct {
	Driver     string `yaml:"driver" json:"driver"`
	Path       string `yaml:"path" json:"path"`
	QuotaBytes int64  `yaml:"quotaBytes" json:"quotaBytes"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Analytics struct {
	RecentWindow int  `yaml:"recentWindow" json:"recentWindow"`
	SampleMemory bool `yaml:"sampleMemory" json:"sampleMemory"`
}

type Engine struct {
	MaxDepth int `yaml:"maxDepth" json:"maxDepth"`
}

// Config is the merged configuration.
type Config struct {
	Schema    Schema    `yaml:"schema" json:"schema"`
	Export    Export    `yaml:"export" json:"export"`
	Search    Search    `yaml:"search" json:"search"`
	Store     Store     `yaml:"store" json:"store"`
	Server    Server    `yaml:"server" json:"server"`
	Analytics Analytics `yaml:"analytics" json:"analytics"`
	Engine    Engine    `yaml:"engine" json:"engine"`
}

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, errors.New("embedded default config is empty")
	}
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Merge decodes data over cfg. Keys absent from data keep their values.
func Merge(cfg Config, data []byte) (Config, error) {
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults merged with the user file. An explicit path
// must exist; the XDG fallbacks are optional.
func Load(explicit string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	path, required := ResolvePath(explicit)
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
		switch {
		case err == nil:
			if cfg, err = Merge(cfg, data); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		case required || !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DataDir()
	}
	return cfg, cfg.Validate()
}

// ResolvePath picks the config file: explicit, then
// $XDG_CONFIG_HOME/pathbench/config.yaml, then ~/.config/pathbench/config.yaml.
// required is true only for an explicit path.
func ResolvePath(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, settings.CliBinaryName, FileName), false
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", settings.CliBinaryName, FileName), false
	}
	return "", false
}

// DataDir is $XDG_DATA_HOME/pathbench, falling back to ~/.local/share/pathbench.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, settings.CliBinaryName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", settings.CliBinaryName)
	}
	return filepath.Join(os.TempDir(), settings.CliBinaryName)
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	var errs []error
	if c.Schema.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("schema.maxDepth must be at least 1, got %d", c.Schema.MaxDepth))
	}
	if c.Export.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("export.maxDepth must be at least 1, got %d", c.Export.MaxDepth))
	}
	switch c.Store.Driver {
	case "file", "duckdb", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.driver must be file, duckdb or memory, got %q", c.Store.Driver))
	}
	if c.Store.QuotaBytes < 0 {
		errs = append(errs, fmt.Errorf("store.quotaBytes must be non-negative, got %d", c.Store.QuotaBytes))
	}
	if c.Analytics.RecentWindow < 1 {
		errs = append(errs, fmt.Errorf("analytics.recentWindow must be at least 1, got %d", c.Analytics.RecentWindow))
	}
	if c.Engine.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("engine.maxDepth must be at least 1, got %d", c.Engine.MaxDepth))
	}
	return errors.Join(errs...)
}

// YAML renders cfg for display.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
