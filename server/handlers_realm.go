package server

import (
	"encoding/json"
	"net/http"
)

// RealmOpenIDConfig serves the per-realm OIDC discovery document.
func (s *Server) RealmOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID := r.PathValue("realmId")

		realm, err := s.realms.Get(realmID)
		if err != nil {
			http.Error(w, "realm not found", http.StatusNotFound)
			return
		}

		issuer := realm.Config.Issuer
		if issuer == "" {
			issuer = s.config.GetBaseURL() + "/realms/" + realmID
		}
		baseURL := s.config.GetBaseURL()

		resp := map[string]any{
			"issuer":         issuer,
			"token_endpoint": baseURL + RouteOAuth2Token,
			"jwks_uri":       baseURL + "/realms/" + realmID + "/.well-known/jwks.json",

			"response_types_supported": []string{"code"},
			"subject_types_supported":  []string{"public"},

			"id_token_signing_alg_values_supported": []string{"RS256"},

			"token_endpoint_auth_methods_supported": []string{
				"client_secret_basic",
				"client_secret_post",
				"private_key_jwt",
				"client_secret_jwt",
				"none",
			},

			"grant_types_supported": []string{
				"authorization_code",
				"refresh_token",
				"client_credentials",
			},

			"code_challenge_methods_supported": []string{"S256", "plain"},
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// RealmJWKS returns the realm's JSON Web Key Set used to validate tokens.
func (s *Server) RealmJWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		realmID := r.PathValue("realmId")

		jwks, err := s.issuer.GetJWKS(realmID)
		if err != nil {
			http.Error(w, "failed to get JWKS: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		_ = json.NewEncoder(w).Encode(jwks)
	}
}
