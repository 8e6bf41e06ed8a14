package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/scc-digitalhub/AAC-sub005/authn"
	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/token"
)

// Token handles the token endpoint: client authentication first, then the
// grant itself.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authenticated, err := s.engine.Authenticate(r)
		if err != nil {
			s.writeRejection(w, err)
			return
		}

		switch r.PostFormValue("grant_type") {
		case "authorization_code":
			s.handleAuthorizationCode(w, r, authenticated)
		case "client_credentials":
			s.handleClientCredentials(w, r, authenticated)
		case "refresh_token":
			s.handleRefreshToken(w, r, authenticated)
		default:
			writeTokenError(w, "unsupported_grant_type", "grant type not supported", http.StatusBadRequest)
		}
	}
}

func (s *Server) handleAuthorizationCode(w http.ResponseWriter, r *http.Request, authenticated *authn.Authenticated) {
	if authenticated == nil {
		writeUnauthorized(w)
		return
	}

	code := r.PostFormValue("code")
	if code == "" {
		writeTokenError(w, "invalid_request", "code is required", http.StatusBadRequest)
		return
	}

	pending, err := s.flow.Consume(code)
	if err != nil {
		writeTokenError(w, "invalid_grant", "authorization code is invalid or expired", http.StatusBadRequest)
		return
	}
	if pending.ClientID != authenticated.Client.ID {
		writeTokenError(w, "invalid_grant", "authorization code was issued to another client", http.StatusBadRequest)
		return
	}
	if pending.RedirectURI != "" && r.PostFormValue("redirect_uri") != pending.RedirectURI {
		writeTokenError(w, "invalid_grant", "redirect_uri does not match the authorization request", http.StatusBadRequest)
		return
	}

	scope := strings.Join(pending.Scopes, " ")
	accessToken, err := s.issuer.CreateAccessToken(pending.RealmID, pending.ClientID, pending.Subject, authenticated.Client.Authorities, scope)
	if err != nil {
		s.writeIssueFailure(w, err)
		return
	}

	resp := &token.Response{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.AccessTokenExpiry().Seconds()),
		Scope:       scope,
	}

	if hasScope(pending.Scopes, "offline_access") {
		origin := &token.OriginalAuthentication{
			ClientID:            pending.ClientID,
			GrantType:           "authorization_code",
			Scopes:              pending.Scopes,
			CodeChallenge:       pending.CodeChallenge,
			CodeChallengeMethod: pending.CodeChallengeMethod,
			Subject:             pending.Subject,
		}
		refreshToken, err := s.issuer.CreateRefreshToken(origin)
		if err != nil {
			s.writeIssueFailure(w, err)
			return
		}
		resp.RefreshToken = refreshToken
	}

	writeTokenResponse(w, resp)
}

func (s *Server) handleClientCredentials(w http.ResponseWriter, r *http.Request, authenticated *authn.Authenticated) {
	if authenticated == nil {
		writeUnauthorized(w)
		return
	}
	// client_credentials needs a real client credential; possession schemes
	// do not qualify.
	if authenticated.Method == clients.AuthMethodNone {
		writeUnauthorized(w)
		return
	}

	client := authenticated.Client
	var granted []string
	for _, scope := range strings.Fields(r.PostFormValue("scope")) {
		if !client.HasScope(scope) {
			writeTokenError(w, "invalid_scope", "scope not allowed for client", http.StatusBadRequest)
			return
		}
		granted = append(granted, scope)
	}

	scope := strings.Join(granted, " ")
	accessToken, err := s.issuer.CreateAccessToken(client.RealmID, client.ID, "", client.Authorities, scope)
	if err != nil {
		s.writeIssueFailure(w, err)
		return
	}

	writeTokenResponse(w, &token.Response{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(s.issuer.AccessTokenExpiry().Seconds()),
		Scope:       scope,
	})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request, authenticated *authn.Authenticated) {
	if authenticated == nil || authenticated.Origin == nil {
		// Rotation is the only supported refresh scheme: a refresh_token
		// grant that did not authenticate by token possession is rejected.
		writeUnauthorized(w)
		return
	}

	origin := authenticated.Origin
	scopes := origin.Scopes
	if requested := strings.Fields(r.PostFormValue("scope")); len(requested) > 0 {
		for _, scope := range requested {
			if !origin.HasScope(scope) {
				writeTokenError(w, "invalid_scope", "scope exceeds the original grant", http.StatusBadRequest)
				return
			}
		}
		scopes = requested
	}

	scope := strings.Join(scopes, " ")
	accessToken, err := s.issuer.CreateAccessToken(authenticated.RealmID, origin.ClientID, origin.Subject, authenticated.Authorities, scope)
	if err != nil {
		s.writeIssueFailure(w, err)
		return
	}

	rotated, err := s.issuer.Rotate(authenticated.ConsumedRefreshToken, origin)
	if err != nil {
		s.writeIssueFailure(w, err)
		return
	}

	writeTokenResponse(w, &token.Response{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.issuer.AccessTokenExpiry().Seconds()),
		RefreshToken: rotated,
		Scope:        scope,
	})
}

func (s *Server) writeRejection(w http.ResponseWriter, err error) {
	rejection := authn.AsRejection(err)
	if rejection.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
	}
	writeTokenError(w, rejection.Code, rejection.Description, rejection.Status)
}

func (s *Server) writeIssueFailure(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("token issuance failed")
	writeTokenError(w, "server_error", "failed to issue token", http.StatusInternalServerError)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="oauth2"`)
	writeTokenError(w, "invalid_client", "client authentication required", http.StatusUnauthorized)
}

func writeTokenError(w http.ResponseWriter, code, description string, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}

func writeTokenResponse(w http.ResponseWriter, resp *token.Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	_ = json.NewEncoder(w).Encode(resp)
}

func hasScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}
