package authn_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/AAC-sub005/authn"
	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/flow"
	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/spid"
	"github.com/scc-digitalhub/AAC-sub005/token"
)

func newEngine(t *testing.T) *authn.Engine {
	t.Helper()

	clientRepo := clients.NewInMemoryRepo()
	require.NoError(t, clientRepo.Upsert(&clients.Client{
		ID:          "web-app",
		RealmID:     "system",
		Secret:      "the-client-secret",
		AuthMethods: []clients.AuthMethod{clients.AuthMethodSecretBasic, clients.AuthMethodSecretPost},
	}))

	flowStore := flow.NewInMemoryStore()
	tokenStore := token.NewInMemoryStore()

	return authn.NewEngine(
		authn.NewSecretValidator(clientRepo),
		authn.NewPKCEValidator(clientRepo, flowStore),
		authn.NewJwtAssertionValidator(clientRepo, authn.NewClaimsValidator([]string{tokenEndpoint}),
			authn.NewReplayCache(100, time.Minute)),
		authn.NewRefreshRotationValidator(clientRepo, tokenStore),
		authn.NewSamlResponseValidator(providers.NewInMemoryRepo(), spid.NewInMemoryRequestStore(),
			spid.NewResponseValidator(), spid.NewAssertionValidator()),
		zerolog.Nop(),
	)
}

func TestEngine_Authenticate(t *testing.T) {
	engine := newEngine(t)

	t.Run("valid basic credentials authenticate", func(t *testing.T) {
		r := tokenRequest(t, url.Values{"grant_type": {"client_credentials"}}, func(r *http.Request) {
			r.SetBasicAuth("web-app", "the-client-secret")
		})

		authenticated, err := engine.Authenticate(r)
		require.NoError(t, err)
		require.Equal(t, "web-app", authenticated.Client.ID)
		require.Equal(t, clients.AuthMethodSecretBasic, authenticated.Method)
	})

	t.Run("wrong basic secret yields opaque invalid_client", func(t *testing.T) {
		r := tokenRequest(t, url.Values{"grant_type": {"client_credentials"}}, func(r *http.Request) {
			r.SetBasicAuth("web-app", "not-the-secret")
		})

		_, err := engine.Authenticate(r)
		require.Error(t, err)
		rejection := authn.AsRejection(err)
		require.Equal(t, "invalid_client", rejection.Code)
		require.Equal(t, http.StatusUnauthorized, rejection.Status)
		require.Equal(t, "client authentication failed", rejection.Description)
	})

	t.Run("no credentials continues unauthenticated", func(t *testing.T) {
		r := tokenRequest(t, url.Values{"grant_type": {"client_credentials"}})

		authenticated, err := engine.Authenticate(r)
		require.NoError(t, err)
		require.Nil(t, authenticated)
	})

	t.Run("malformed request maps to invalid_request", func(t *testing.T) {
		r := tokenRequest(t, url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {"web-app", "web-app"},
			"client_secret": {"the-client-secret"},
		})

		_, err := engine.Authenticate(r)
		require.Error(t, err)
		rejection := authn.AsRejection(err)
		require.Equal(t, "invalid_request", rejection.Code)
		require.Equal(t, http.StatusBadRequest, rejection.Status)
	})
}
