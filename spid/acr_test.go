package spid_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scc-digitalhub/AAC-sub005/spid"
)

func TestParseACR(t *testing.T) {
	t.Run("recognized levels", func(t *testing.T) {
		for _, value := range []string{
			"https://www.spid.gov.it/SpidL1",
			"https://www.spid.gov.it/SpidL2",
			"https://www.spid.gov.it/SpidL3",
		} {
			acr, err := spid.ParseACR(value)
			require.NoError(t, err)
			require.Equal(t, spid.ACR(value), acr)
		}
	})

	t.Run("unrecognized value", func(t *testing.T) {
		_, err := spid.ParseACR("urn:oasis:names:tc:SAML:2.0:ac:classes:PasswordProtectedTransport")
		require.Error(t, err)
	})
}

func TestACR_Satisfies(t *testing.T) {
	t.Run("equal level satisfies", func(t *testing.T) {
		require.True(t, spid.ACRSpidL2.Satisfies(spid.ACRSpidL2))
	})

	t.Run("higher level satisfies", func(t *testing.T) {
		require.True(t, spid.ACRSpidL3.Satisfies(spid.ACRSpidL1))
	})

	t.Run("lower level does not satisfy", func(t *testing.T) {
		require.False(t, spid.ACRSpidL1.Satisfies(spid.ACRSpidL2))
	})

	t.Run("unrecognized never satisfies", func(t *testing.T) {
		require.False(t, spid.ACR("bogus").Satisfies(spid.ACRSpidL1))
	})
}
