package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// OIDCLogin starts an upstream OIDC login by redirecting to the provider's
// authorization endpoint.
func (s *Server) OIDCLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registrationID := r.PathValue("registrationId")

		state := uuid.NewString()
		authURL, err := s.oidc.AuthCodeURL(r.Context(), registrationID, state)
		if err != nil {
			s.logger.Error().Err(err).Str("registrationId", registrationID).Msg("oidc login failed")
			http.Error(w, "provider not available", http.StatusBadGateway)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "oidc_state",
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			MaxAge:   300,
		})
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OIDCCallback completes an upstream OIDC login: state check, code exchange,
// ID token verification.
func (s *Server) OIDCCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registrationID := r.PathValue("registrationId")

		stateCookie, err := r.Cookie("oidc_state")
		if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "code is required", http.StatusBadRequest)
			return
		}

		idToken, err := s.oidc.Exchange(r.Context(), registrationID, code)
		if err != nil {
			s.logger.Warn().Err(err).Str("registrationId", registrationID).Msg("oidc exchange failed")
			http.Error(w, "upstream authentication failed", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"subject": idToken.Subject,
			"issuer":  idToken.Issuer,
		})
	}
}
