package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// Middleware wraps a handler with endpoint-specific authentication.
type Middleware func(kind AuthKind, next http.HandlerFunc) http.HandlerFunc

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// authMiddleware wraps each handler according to its declared auth kind.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, authMiddleware Middleware) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if authMiddleware != nil {
			handler = authMiddleware(ep.Auth(), handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running dataquard server via HTTP.

These commands require a running server (dataquard serve).
Use --server to specify a custom server URL and --token to authenticate.

Examples:
  dataquard api health                       # Check server health
  dataquard api policy queue example.ch GDPR # Queue a policy generation
  dataquard api policy status <job_id>       # Check a job`,
	}

	for _, ep := range r.endpoints {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
