// Package config handles the displayhub configuration file and its
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AuthorityConfig selects and tunes the authority backend.
type AuthorityConfig struct {
	// Backend names the authority implementation. Currently only "x11".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PollIntervalMs is how often the backend polls for output changes.
	PollIntervalMs int `json:"poll_interval_ms" yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
}

// PollInterval returns the poll interval as a duration.
func (a AuthorityConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalMs) * time.Millisecond
}

// CompatConfig mirrors display.CompatParams in the config file.
type CompatConfig struct {
	TargetDPI int     `json:"target_dpi" yaml:"target_dpi" mapstructure:"target_dpi"`
	Scale     float64 `json:"scale" yaml:"scale" mapstructure:"scale"`
}

// Params converts the config section into compatibility parameters.
func (c CompatConfig) Params() display.CompatParams {
	return display.CompatParams{TargetDPI: c.TargetDPI, Scale: c.Scale}
}

// Config represents the application configuration
type Config struct {
	ServerPort int             `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
	LogLevel   string          `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Authority  AuthorityConfig `json:"authority" yaml:"authority" mapstructure:"authority"`
	Compat     CompatConfig    `json:"compat" yaml:"compat" mapstructure:"compat"`
}

// Manager handles configuration loading and persistence.
type Manager struct {
	configPath string
	config     *Config
	v          *viper.Viper
	mu         sync.RWMutex
}

// NewManager creates a configuration manager, loading the config file or
// creating it with defaults when absent.
func NewManager(configFile string) (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "displayhub")
	actualConfigPath := filepath.Join(configDir, "config.yaml")
	if configFile != "" {
		actualConfigPath = configFile
		configDir = filepath.Dir(configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: actualConfigPath,
		v:          viper.New(),
	}
	m.v.SetConfigFile(actualConfigPath)

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			if err := m.v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return m, nil
}

func defaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Authority: AuthorityConfig{
			Backend:        "x11",
			PollIntervalMs: 2000,
		},
		Compat: CompatConfig{},
	}
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	// Mirror into viper so key-based get/set keeps working.
	if err := m.v.ReadInConfig(); err != nil {
		return err
	}
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := yaml.Marshal(m.config)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := *m.config
	return &cfg
}

// GetConfigPath returns the path of the config file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetViper exposes the underlying viper instance for key-based access.
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// SetPort overrides the HTTP server port.
func (m *Manager) SetPort(port int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.ServerPort = port
}

// SetLogLevel overrides the log level.
func (m *Manager) SetLogLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.LogLevel = level
}

// ApplyViper folds values set through the viper instance back into the
// typed config. Used by `config set` before saving.
func (m *Manager) ApplyViper() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := *m.config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to apply config values: %w", err)
	}
	m.config = &cfg
	return nil
}
