package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/authbridge/go-auth-bridge/internal/metrics"
	"github.com/authbridge/go-auth-bridge/provider"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentity stores the authenticated request identity
const ContextKeyIdentity ContextKey = "identity"

// RequestIdentity is the trusted identity the middleware attaches to a
// request after the provider confirms its bearer token.
type RequestIdentity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IdentityFromContext returns the identity attached by RequireAuth.
func IdentityFromContext(ctx context.Context) (RequestIdentity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(RequestIdentity)
	return identity, ok
}

// RequireAuth validates the request's bearer token against the identity
// provider and attaches the confirmed identity to the request context. A
// missing or malformed header is rejected before any provider call; every
// request with a token revalidates against the provider, with no local
// cache: the provider stays authoritative.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				metrics.TokenValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing token")
				return
			}

			profile, err := s.provider.Me(r.Context(), token)
			if err != nil {
				if errors.Is(err, provider.ErrProviderUnreachable) {
					metrics.TokenValidations.WithLabelValues(metrics.OutcomeError).Inc()
					log.Ctx(r.Context()).Warn().Err(err).Msg("token validation unreachable")
					writeError(w, http.StatusBadGateway, "provider_unreachable", "identity provider unreachable")
					return
				}
				metrics.TokenValidations.WithLabelValues(metrics.OutcomeRejected).Inc()
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			metrics.TokenValidations.WithLabelValues(metrics.OutcomeSuccess).Inc()
			identity := RequestIdentity{
				ID:       profile.ID,
				Username: profile.Username,
				Email:    profile.Email,
			}
			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" for anything else.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
