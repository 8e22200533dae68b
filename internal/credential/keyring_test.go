package credential

import (
	"errors"
	"os"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/require"
)

func newTestVault(env map[string]string) *Vault {
	v := NewVault(keyring.NewArrayKeyring(nil))
	v.getenv = func(k string) string { return env[k] }
	return v
}

func TestTokenMissing(t *testing.T) {
	v := newTestVault(nil)

	_, err := v.Token()
	require.ErrorIs(t, err, ErrNoToken)
}

func TestSetTokenRoundTrip(t *testing.T) {
	v := newTestVault(nil)

	require.NoError(t, v.SetToken("  secret  "))

	tok, err := v.Token()
	require.NoError(t, err)
	require.Equal(t, "secret", tok)
}

func TestTokenEnvOverride(t *testing.T) {
	v := newTestVault(map[string]string{TokenEnv: "from-env"})
	require.NoError(t, v.SetToken("stored"))

	tok, err := v.Token()
	require.NoError(t, err)
	require.Equal(t, "from-env", tok)
}

func TestSetTokenRejectsBlank(t *testing.T) {
	v := newTestVault(nil)
	require.ErrorIs(t, v.SetToken("   "), ErrNoToken)
}

func TestDelete(t *testing.T) {
	v := newTestVault(nil)
	require.NoError(t, v.SetToken("secret"))
	require.NoError(t, v.Delete(TokenKey))

	_, err := v.Token()
	require.ErrorIs(t, err, ErrNoToken)
}

type failingRing struct {
	*keyring.ArrayKeyring
	removeErr error
}

func (r failingRing) Remove(string) error { return r.removeErr }

func TestResetToken(t *testing.T) {
	v := newTestVault(nil)
	require.NoError(t, v.SetToken("secret"))

	require.NoError(t, v.ResetToken())
	_, err := v.Token()
	require.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, v.ResetToken())
}

func TestResetTokenToleratesMissingItem(t *testing.T) {
	for _, missing := range []error{keyring.ErrKeyNotFound, os.ErrNotExist} {
		v := NewVault(failingRing{ArrayKeyring: keyring.NewArrayKeyring(nil), removeErr: missing})
		require.NoError(t, v.ResetToken())
	}
}

func TestResetTokenReportsBackendFailure(t *testing.T) {
	locked := errors.New("keyring locked")
	v := NewVault(failingRing{ArrayKeyring: keyring.NewArrayKeyring(nil), removeErr: locked})

	err := v.ResetToken()
	require.ErrorIs(t, err, locked)
}
