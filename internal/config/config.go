package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DirName is the per-workspace state directory.
const DirName = ".onto"

// Config holds all ontomodel configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Term store backend
	Store StoreConfig `yaml:"store"`

	// Model artifacts
	Model ModelConfig `yaml:"model"`

	// Cross-reference validation
	Validation ValidationConfig `yaml:"validation"`

	// Definitions watcher
	Watch WatchConfig `yaml:"watch"`

	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ontomodel",
		Version: "0.3.0",

		Store: StoreConfig{
			Driver:      DriverMattn,
			Path:        filepath.Join(DirName, "terms.db"),
			BusyTimeout: "5s",
		},

		Model: ModelConfig{
			OutputDir:   "model",
			TermListDir: "model",
		},

		Validation: ValidationConfig{
			Enabled:   true,
			FactLimit: 50000,
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, DirName, "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults still honour the environment
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("ONTO_DB"); path != "" {
		c.Store.Path = path
	}
	if driver := os.Getenv("ONTO_DB_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if dir := os.Getenv("ONTO_OUTPUT_DIR"); dir != "" {
		c.Model.OutputDir = dir
	}
}

// GetBusyTimeout returns the SQLite busy timeout as a duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return parseDuration(c.Store.BusyTimeout, 5*time.Second)
}

// GetDebounce returns the watcher debounce interval.
func (c *Config) GetDebounce() time.Duration {
	return parseDuration(c.Watch.Debounce, 500*time.Millisecond)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path not configured (set store.path or ONTO_DB)")
	}
	if c.Model.OutputDir == "" {
		return fmt.Errorf("model output directory not configured")
	}
	if c.Validation.FactLimit < 0 {
		return fmt.Errorf("invalid validation.fact_limit %d", c.Validation.FactLimit)
	}
	for name, value := range map[string]string{
		"store.busy_timeout": c.Store.BusyTimeout,
		"watch.debounce":     c.Watch.Debounce,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}

// Resolve makes relative paths absolute against the workspace root.
func (c *Config) Resolve(workspace string) {
	c.Store.Path = resolvePath(workspace, c.Store.Path)
	c.Model.OutputDir = resolvePath(workspace, c.Model.OutputDir)
	c.Model.TermListDir = resolvePath(workspace, c.Model.TermListDir)
}

func resolvePath(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	return filepath.Join(workspace, p)
}

// FindWorkspaceRoot walks up from the working directory looking for .onto.
// If not found, returns the current working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, DirName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}
