package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dataquard/dataquard/internal/api"
	"github.com/dataquard/dataquard/internal/config"
	"github.com/dataquard/dataquard/internal/svcctx"
)

// authenticate wraps a handler with the authentication its endpoint
// declares. User endpoints resolve a bearer token to an owner id and
// place it on the request context; the scheduler trigger checks the
// shared secret with a constant-time compare.
func (s *Server) authenticate(kind api.AuthKind, next http.HandlerFunc) http.HandlerFunc {
	switch kind {
	case api.AuthUser:
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			owner, ok := s.configMgr.Get().OwnerForToken(token)
			if !ok {
				unauthorized(w, "invalid token")
				return
			}
			next(w, r.WithContext(svcctx.WithOwner(r.Context(), owner)))
		}
	case api.AuthCron:
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			secret := s.cronSecret()
			if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				unauthorized(w, "invalid trigger secret")
				return
			}
			next(w, r)
		}
	default:
		return next
	}
}

// cronSecret resolves the scheduler trigger secret, expanding any
// ${ENV_VAR} reference in the config value.
func (s *Server) cronSecret() string {
	return config.ResolveEnvVars(s.configMgr.Get().Auth.CronSecret)
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
