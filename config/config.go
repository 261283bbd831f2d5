// Package config holds the application settings: where the external terminal
// client lives, defaults for the ad-hoc connection form, and an optional
// override of the sessions registry root.
//
// Settings load from config.json under the config directory, then any
// PLAUNCH_* environment variables override the file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kelseyhightower/envconfig"

	"github.com/plaunch/plaunch-core/paths"
)

// Config holds the application configuration
type Config struct {
	ClientPath      string `json:"client_path,omitempty"`      // Path to the terminal client executable (e.g., putty.exe)
	DefaultProtocol string `json:"default_protocol,omitempty"` // Protocol preselected on the create form (default "ssh")
	DefaultPort     int    `json:"default_port,omitempty"`     // Port preselected on the create form (default 22)
	SessionsRoot    string `json:"sessions_root,omitempty"`    // Registry root override; empty means the client's default
	Debug           bool   `json:"debug,omitempty"`            // Debug level logging

	mu       sync.RWMutex
	filePath string
}

// envOverrides mirrors the file settings for environment-based overrides.
// Only non-empty values are applied on top of the file.
type envOverrides struct {
	ClientPath      string `envconfig:"CLIENT_PATH"`
	DefaultProtocol string `envconfig:"DEFAULT_PROTOCOL"`
	DefaultPort     int    `envconfig:"DEFAULT_PORT"`
	SessionsRoot    string `envconfig:"SESSIONS_ROOT"`
	Debug           bool   `envconfig:"DEBUG"`
}

// envPrefix is the prefix for override variables, e.g. PLAUNCH_CLIENT_PATH.
const envPrefix = "plaunch"

// Load reads the config from disk, or creates a new one if it doesn't exist.
// Environment variables with the PLAUNCH_ prefix override file values.
func Load() (*Config, error) {
	path, err := paths.ConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{filePath: path}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays PLAUNCH_* environment variables onto the loaded values.
// Called during single-threaded Load, before the Config is shared.
func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.ClientPath != "" {
		c.ClientPath = env.ClientPath
	}
	if env.DefaultProtocol != "" {
		c.DefaultProtocol = env.DefaultProtocol
	}
	if env.DefaultPort != 0 {
		c.DefaultPort = env.DefaultPort
	}
	if env.SessionsRoot != "" {
		c.SessionsRoot = env.SessionsRoot
	}
	if env.Debug {
		c.Debug = true
	}
	return nil
}

// Validate checks that the config is internally consistent.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.DefaultPort != 0 && (c.DefaultPort < 1 || c.DefaultPort > 65535) {
		return fmt.Errorf("default_port must be between 1 and 65535, got %d", c.DefaultPort)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir, err := paths.ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.filePath, data, 0644)
}

// SetFilePath sets the config file path (for testing).
func (c *Config) SetFilePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filePath = path
}

// GetClientPath returns the configured terminal client executable path
func (c *Config) GetClientPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ClientPath
}

// SetClientPath sets the terminal client executable path
func (c *Config) SetClientPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClientPath = path
}

// GetDefaultProtocol returns the form's preselected protocol, defaulting to "ssh"
func (c *Config) GetDefaultProtocol() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.DefaultProtocol == "" {
		return "ssh"
	}
	return c.DefaultProtocol
}

// SetDefaultProtocol sets the form's preselected protocol
func (c *Config) SetDefaultProtocol(protocol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultProtocol = protocol
}

// GetDefaultPort returns the form's preselected port, defaulting to 22
func (c *Config) GetDefaultPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.DefaultPort == 0 {
		return 22
	}
	return c.DefaultPort
}

// SetDefaultPort sets the form's preselected port
func (c *Config) SetDefaultPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultPort = port
}

// GetSessionsRoot returns the registry root override, or empty string for
// the client's default location
func (c *Config) GetSessionsRoot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SessionsRoot
}

// SetSessionsRoot sets the registry root override
func (c *Config) SetSessionsRoot(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SessionsRoot = root
}

// GetDebug returns whether debug logging is enabled
func (c *Config) GetDebug() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Debug
}

// SetDebug sets whether debug logging is enabled
func (c *Config) SetDebug(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Debug = enabled
}
