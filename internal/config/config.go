// Package config loads and hot-reloads the dataquard configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dataquard/dataquard/internal/metrics"
	"github.com/dataquard/dataquard/internal/policy"
	"github.com/dataquard/dataquard/internal/providers"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("auth", defaults.Auth)
	viper.SetDefault("batch", defaults.Batch)
	viper.SetDefault("providers", defaults.Providers)
	viper.SetDefault("pricing", defaults.Pricing)
	viper.SetDefault("notifier", defaults.Notifier)
	viper.SetDefault("polling", defaults.Polling)

	// Environment variables with DATAQUARD_ prefix
	viper.SetEnvPrefix("DATAQUARD")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.dataquard")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToProviderRegistryConfig converts the config to a format suitable for
// providers.Registry. It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Active:    c.Batch.Provider,
		Providers: make(map[string]providers.Config),
	}

	for name, pc := range c.Providers {
		cfg.Providers[name] = providers.Config{
			Type:      pc.Type,
			Model:     pc.Model,
			APIKey:    ResolveEnvVars(pc.APIKey),
			MaxTokens: pc.MaxTokens,
			System:    policy.SystemPrompt,
			Timeout:   time.Duration(pc.TimeoutSeconds) * time.Second,
			Enabled:   pc.Enabled,
		}
	}

	return cfg
}

// ToPricing converts the pricing section to a metrics.Pricing.
func (c *Config) ToPricing() metrics.Pricing {
	return metrics.Pricing{
		InputUSDPerMillion:  c.Pricing.InputUSDPerMillion,
		OutputUSDPerMillion: c.Pricing.OutputUSDPerMillion,
	}
}

// OwnerForToken resolves an API bearer token to its owner id.
func (c *Config) OwnerForToken(token string) (string, bool) {
	entry, ok := c.Auth.Tokens[token]
	if !ok || entry.Owner == "" {
		return "", false
	}
	return entry.Owner, true
}

// ContactForOwner resolves an owner id to a notification address.
func (c *Config) ContactForOwner(ownerID string) (string, bool) {
	for _, entry := range c.Auth.Tokens {
		if entry.Owner == ownerID && entry.Email != "" {
			return entry.Email, true
		}
	}
	return "", false
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# dataquard configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export ANTHROPIC_API_KEY=xxx RESEND_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
