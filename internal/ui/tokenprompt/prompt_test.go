package tokenprompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.Error(t, Validate(""))
	require.Error(t, Validate("   "))
	require.Error(t, Validate("short"))
	require.Error(t, Validate("abcdefgh ijklmnopq"))
	require.NoError(t, Validate("  eyJhbGciOiJIUzI1NiJ9.payload.sig  "))
}
