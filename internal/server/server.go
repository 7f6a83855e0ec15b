package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/config"
	"github.com/dataquard/dataquard/internal/metrics"
	"github.com/dataquard/dataquard/internal/notify"
	"github.com/dataquard/dataquard/internal/pipeline"
	"github.com/dataquard/dataquard/internal/providers"
	"github.com/dataquard/dataquard/internal/server/endpoints"
	"github.com/dataquard/dataquard/internal/store"
	"github.com/dataquard/dataquard/internal/svcctx"
)

// Server is the main dataquard HTTP server. It owns the job store,
// the batch provider registry and the generation pipeline.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	pipeline   *pipeline.Pipeline
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DatabasePath is where the sqlite job database lives
	DatabasePath string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Notifier overrides the Resend notifier (tests)
	Notifier notify.Notifier
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	jobStore, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}

	// Create provider registry with hot reload from config
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	notifier := cfg.Notifier
	if notifier == nil {
		nc := cfg.ConfigManager.Get().Notifier
		notifier = notify.NewResendNotifier(notify.ResendConfig{
			APIKey:  config.ResolveEnvVars(nc.APIKey),
			From:    nc.From,
			Timeout: time.Duration(nc.TimeoutSeconds) * time.Second,
		})
	}

	s := &Server{
		store:     jobStore,
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	s.pipeline = pipeline.New(pipeline.Config{
		Store:        jobStore,
		Registry:     registry,
		Notifier:     notifier,
		Pricing:      currentPricing(cfg.ConfigManager),
		Contacts:     s.contactForOwner,
		MaxBatchSize: cfg.ConfigManager.Get().Batch.MaxSize,
		Logger:       cfg.Logger,
	})

	s.services = &svcctx.Services{
		Store:     jobStore,
		Pipeline:  s.pipeline,
		Registry:  registry,
		ConfigMgr: cfg.ConfigManager,
		Logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{
		SwaggerSpecPath: endpoints.GetSwaggerSpecPath(),
	}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.authenticate)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// currentPricing reads the pricing rates from config, falling back to
// defaults when the section is zeroed out.
func currentPricing(cm *config.Manager) metrics.Pricing {
	p := cm.Get().ToPricing()
	if p.InputUSDPerMillion == 0 && p.OutputUSDPerMillion == 0 {
		return metrics.DefaultPricing()
	}
	return p
}

// contactForOwner resolves notification addresses from the live config,
// so token table edits take effect without a restart.
func (s *Server) contactForOwner(ownerID string) (string, bool) {
	return s.configMgr.Get().ContactForOwner(ownerID)
}

// Start starts the server. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Verify the job store is reachable before accepting traffic
	if err := s.store.Ping(ctx); err != nil {
		s.setNotRunning()
		return fmt.Errorf("job store health check failed: %w", err)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and closes the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("job store close error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Store returns the job store.
func (s *Server) Store() *store.Store {
	return s.store
}

// Pipeline returns the generation pipeline.
func (s *Server) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Handler returns the full HTTP handler including middleware (tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
