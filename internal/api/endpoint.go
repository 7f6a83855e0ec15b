package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint defines both an HTTP route and its corresponding CLI command.
// This provides a single source of truth for API operations.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// Auth returns the authentication the endpoint requires.
	Auth() AuthKind

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is called at runtime to get the server URL (deferred evaluation).
	Command(getServerURL func() string) *cobra.Command
}

// AuthKind selects the authentication middleware for an endpoint.
type AuthKind int

const (
	// AuthNone leaves the endpoint open (health checks, swagger).
	AuthNone AuthKind = iota
	// AuthUser requires a user API token; the resolved owner id is
	// placed on the request context.
	AuthUser
	// AuthCron requires the scheduler trigger's shared secret.
	AuthCron
)
