package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/authbridge/go-auth-bridge/internal/metrics"
	"github.com/authbridge/go-auth-bridge/provider"
)

// The three RPC handlers are pass-through adapters to the identity
// provider: schema validation at the boundary, no state of their own.

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type meRequest struct {
	Token string `json:"token" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LoginHandler exchanges credentials for the full identity and token pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		result, err := s.provider.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			s.writeProviderError(w, r, err, "invalid_credentials", "invalid username or password", metrics.Logins)
			return
		}

		metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
		log.Ctx(r.Context()).Info().Str("username", result.Username).Msg("login succeeded")
		writeJSON(w, http.StatusOK, result)
	}
}

// MeHandler resolves an access token to its profile.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req meRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		profile, err := s.provider.Me(r.Context(), req.Token)
		if err != nil {
			s.writeProviderError(w, r, err, "unauthorized", "invalid token", nil)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

// RefreshHandler exchanges a refresh token for a new token pair.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		creds, err := s.provider.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeProviderError(w, r, err, "refresh_failed", "refresh token rejected", metrics.Refreshes)
			return
		}

		metrics.Refreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
		writeJSON(w, http.StatusOK, creds)
	}
}

// SessionHandler returns the identity RequireAuth attached to the request.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "no authenticated identity")
			return
		}
		writeJSON(w, http.StatusOK, identity)
	}
}

// HealthHandler is the liveness probe.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// writeProviderError maps a provider failure onto the RPC error envelope: a
// transport failure becomes 502, a provider-confirmed rejection becomes 401
// with the handler's own error code.
func (s *Server) writeProviderError(w http.ResponseWriter, r *http.Request, err error, code, description string, counter *prometheus.CounterVec) {
	if errors.Is(err, provider.ErrProviderUnreachable) {
		if counter != nil {
			counter.WithLabelValues(metrics.OutcomeError).Inc()
		}
		log.Ctx(r.Context()).Warn().Err(err).Msg("identity provider unreachable")
		writeError(w, http.StatusBadGateway, "provider_unreachable", "identity provider unreachable")
		return
	}

	if counter != nil {
		counter.WithLabelValues(metrics.OutcomeRejected).Inc()
	}
	writeError(w, http.StatusUnauthorized, code, description)
}
