// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all OpsPulse configuration.
type Config struct {
	Version int `yaml:"version"`

	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
}

// StorageConfig selects and configures the event store backend.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // file | memory | redis | duckdb
	Path      string `yaml:"path"`    // file: JSONL path, duckdb: database path
	Retention int    `yaml:"retention"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
	Key      string `yaml:"key"`
}

// ServerConfig for the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// TelemetryConfig for optional OTLP trace export. Enabled is a pointer so
// an explicit "enabled: false" in a higher-priority layer can switch off
// what a lower layer turned on.
type TelemetryConfig struct {
	Enabled  *bool  `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// IsEnabled reports whether telemetry is switched on. Absent means off.
func (t TelemetryConfig) IsEnabled() bool {
	return t.Enabled != nil && *t.Enabled
}

// CatalogueConfig points at an optional workflow catalogue file. When Path
// is empty the built-in catalogue is used.
type CatalogueConfig struct {
	Path string `yaml:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	opspulseDir := filepath.Join(homeDir, ".opspulse")

	return &Config{
		Version: 1,
		Storage: StorageConfig{
			Backend:   "file",
			Path:      filepath.Join(opspulseDir, "events.jsonl"),
			Retention: 10000,
			Redis: RedisConfig{
				Address: "localhost:6379",
				Key:     "opspulse:events",
			},
		},
		Server: ServerConfig{
			Port:        8080,
			Host:        "localhost",
			CORSOrigins: []string{"*"},
		},
		Telemetry: TelemetryConfig{},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start with defaults
	m.config = Default()

	// Load from paths in order (later overrides earlier)
	for _, path := range m.getConfigPaths() {
		if err := m.loadFile(path); err != nil {
			// Ignore missing files, but surface errors for existing files
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	// Override with environment variables
	m.loadEnv()

	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/opspulse/config.yaml")
	}

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".opspulse", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".opspulse.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	// Storage
	if src.Storage.Backend != "" {
		m.config.Storage.Backend = src.Storage.Backend
	}
	if src.Storage.Path != "" {
		m.config.Storage.Path = src.Storage.Path
	}
	if src.Storage.Retention != 0 {
		m.config.Storage.Retention = src.Storage.Retention
	}
	if src.Storage.Redis.Address != "" {
		m.config.Storage.Redis.Address = src.Storage.Redis.Address
	}
	if src.Storage.Redis.Password != "" {
		m.config.Storage.Redis.Password = src.Storage.Redis.Password
	}
	if src.Storage.Redis.Database != 0 {
		m.config.Storage.Redis.Database = src.Storage.Redis.Database
	}
	if src.Storage.Redis.Key != "" {
		m.config.Storage.Redis.Key = src.Storage.Redis.Key
	}

	// Server
	if src.Server.Port != 0 {
		m.config.Server.Port = src.Server.Port
	}
	if src.Server.Host != "" {
		m.config.Server.Host = src.Server.Host
	}
	if len(src.Server.CORSOrigins) > 0 {
		m.config.Server.CORSOrigins = src.Server.CORSOrigins
	}

	// Telemetry
	if src.Telemetry.Enabled != nil {
		m.config.Telemetry.Enabled = src.Telemetry.Enabled
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}

	// Catalogue
	if src.Catalogue.Path != "" {
		m.config.Catalogue.Path = src.Catalogue.Path
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("OPSPULSE_STORAGE"); v != "" {
		m.config.Storage.Backend = v
	}
	if v := os.Getenv("OPSPULSE_STORAGE_PATH"); v != "" {
		m.config.Storage.Path = v
	}
	if v := os.Getenv("OPSPULSE_REDIS_ADDR"); v != "" {
		m.config.Storage.Redis.Address = v
	}
	if v := os.Getenv("OPSPULSE_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			m.config.Server.Port = port
		}
	}
	if v := os.Getenv("OPSPULSE_CATALOGUE"); v != "" {
		m.config.Catalogue.Path = v
	}
	if v := os.Getenv("OPSPULSE_OTLP_ENDPOINT"); v != "" {
		enabled := true
		m.config.Telemetry.Enabled = &enabled
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".opspulse")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}
