package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/scc-digitalhub/AAC-sub005/authn"
	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/spid"
)

// SamlLogin starts a SPID login for a registration: it records the outbound
// authentication request and redirects the browser to the identity
// provider's SSO endpoint with the request in the redirect binding.
func (s *Server) SamlLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registrationID := r.PathValue("registrationId")

		rp, err := s.registrations.Get(registrationID)
		if err != nil {
			http.Error(w, "unknown registration", http.StatusNotFound)
			return
		}

		idp, err := providers.ResolveIdP(rp)
		if err != nil {
			s.logger.Error().Err(err).Str("registrationId", registrationID).Msg("identity provider resolution failed")
			http.Error(w, "identity provider not available", http.StatusBadGateway)
			return
		}

		request := &spid.AuthnRequest{
			ID:             "_" + uuid.NewString(),
			RegistrationID: rp.RegistrationID,
			IssueInstant:   time.Now().UTC(),
			RequestedACR:   rp.RequestedACR,
			RelayState:     r.URL.Query().Get("RelayState"),
		}

		redirectURL, err := providers.BuildRedirectURL(rp, idp, request)
		if err != nil {
			s.logger.Error().Err(err).Str("registrationId", registrationID).Msg("authentication request build failed")
			http.Error(w, "login not available", http.StatusInternalServerError)
			return
		}

		if err := s.samlRequests.Put(request); err != nil {
			s.logger.Error().Err(err).Str("registrationId", registrationID).Msg("authentication request store failed")
			http.Error(w, "login not available", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// SamlACS handles responses posted by the identity provider to the
// assertion consumer endpoint of a registration.
func (s *Server) SamlACS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registrationID := r.PathValue("registrationId")

		if err := r.ParseForm(); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		encoded := r.PostFormValue("SAMLResponse")
		if encoded == "" {
			http.Error(w, "SAMLResponse is required", http.StatusBadRequest)
			return
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			http.Error(w, "SAMLResponse is not valid base64", http.StatusBadRequest)
			return
		}

		authenticated, err := s.engine.AuthenticateSamlResponse(registrationID, raw)
		if err != nil {
			rejection := authn.AsRejection(err)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(rejection.Status)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             rejection.Code,
				"error_description": rejection.Description,
			})
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"subject":     authenticated.Subject,
			"realm":       authenticated.RealmID,
			"authorities": authenticated.Authorities,
			"relayState":  r.PostFormValue("RelayState"),
		})
	}
}

// SamlMetadata serves the signed service provider metadata for a
// registration.
func (s *Server) SamlMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registrationID := r.PathValue("registrationId")

		metadata, err := s.metadata.Resolve(registrationID)
		if err != nil {
			s.logger.Error().Err(err).Str("registrationId", registrationID).Msg("metadata resolution failed")
			http.Error(w, "metadata not available", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/samlmetadata+xml")
		_, _ = w.Write(metadata)
	}
}
