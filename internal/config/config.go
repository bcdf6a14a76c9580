package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is used for the config and cache directory names.
const AppName = "archistory"

// Config holds all archistory configuration.
type Config struct {
	Profiles []ProfileConfig `yaml:"profiles"`
	Snapshot SnapshotConfig  `yaml:"snapshot"`
	Search   SearchConfig    `yaml:"search"`
	Server   ServerConfig    `yaml:"server"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ProfileConfig names a browser profile and its live History file.
type ProfileConfig struct {
	Name    string `yaml:"name"`
	History string `yaml:"history"`
}

type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

type SearchConfig struct {
	PerPage             int `yaml:"per_page"`
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
	Parallelism         int `yaml:"parallelism"`
}

type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfigPath returns <xdg config home>/archistory/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultSnapshotDir returns <xdg cache home>/archistory/snapshots.
func DefaultSnapshotDir() string {
	return filepath.Join(xdg.CacheHome, AppName, "snapshots")
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML, or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}

	return cfg, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	return LoadOrCreateAt(DefaultConfigPath())
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i, p := range c.Profiles {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("profiles[%d]: name is required", i))
		case !validProfileName(p.Name):
			errs = append(errs, fmt.Errorf("profiles[%d]: name %q may only contain letters, digits, '-' and '_'", i, p.Name))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("profiles[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true

		if p.History == "" {
			errs = append(errs, fmt.Errorf("profiles[%d]: history path is required", i))
		}
	}

	if c.Search.PerPage < 1 {
		errs = append(errs, errors.New("search.per_page must be positive"))
	}
	if c.Search.QueryTimeoutSeconds < 1 {
		errs = append(errs, errors.New("search.query_timeout_seconds must be positive"))
	}
	if c.Search.Parallelism < 1 {
		errs = append(errs, errors.New("search.parallelism must be positive"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ProfileNames returns the configured profile ids in order.
func (c *Config) ProfileNames() []string {
	names := make([]string, len(c.Profiles))
	for i, p := range c.Profiles {
		names[i] = p.Name
	}
	return names
}

// SnapshotDir returns the expanded snapshot working directory.
func (c *Config) SnapshotDir() (string, error) {
	if c.Snapshot.Dir == "" {
		return DefaultSnapshotDir(), nil
	}
	return ExpandPath(c.Snapshot.Dir)
}

// QueryTimeout returns the per-profile query timeout.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Search.QueryTimeoutSeconds) * time.Second
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

func validProfileName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
