package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the configured batch providers. It supports
// config-driven instantiation and hot reload, and provides thread-safe
// access for the pipeline.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]BatchProvider
	active    string
	logger    *slog.Logger
}

// RegistryConfig drives provider construction on (re)load.
type RegistryConfig struct {
	// Active names the provider the pipeline submits through.
	Active string
	// Providers maps provider name to its settings.
	Providers map[string]Config
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]BatchProvider),
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a provider by name.
func (r *Registry) Register(name string, provider BatchProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
	if r.logger != nil {
		r.logger.Info("registered batch provider", "name", name)
	}
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (BatchProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("batch provider not found: %s", name)
	}
	return provider, nil
}

// Active returns the provider the pipeline should submit through.
func (r *Registry) Active() (BatchProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil, fmt.Errorf("no active batch provider configured")
	}
	provider, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("active batch provider not registered: %s", r.active)
	}
	return provider, nil
}

// List returns the names of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Reload replaces the registered providers from config. Disabled entries
// and entries without an API key are skipped.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = make(map[string]BatchProvider)
	r.active = cfg.Active

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		var provider BatchProvider
		switch pc.Type {
		case AnthropicName:
			if pc.APIKey == "" {
				continue
			}
			provider = NewAnthropicClient(pc)
		case OpenAIName:
			if pc.APIKey == "" {
				continue
			}
			provider = NewOpenAIClient(pc)
		case MockName:
			provider = NewMockProvider()
		default:
			if r.logger != nil {
				r.logger.Warn("unknown batch provider type", "name", name, "type", pc.Type)
			}
			continue
		}

		r.providers[name] = provider
		if r.logger != nil {
			r.logger.Info("registered batch provider", "name", name, "type", pc.Type)
		}
	}
}
