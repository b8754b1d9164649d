package executors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"crosstrader/src/security"
)

func TestResolveCredentialDecrypts(t *testing.T) {
	sealed, err := security.EncryptString("api-key-plain")
	require.NoError(t, err)

	plain, err := resolveCredential(sealed, false)
	require.NoError(t, err)
	require.Equal(t, "api-key-plain", plain)
}

func TestResolveCredentialEmptyPassesThrough(t *testing.T) {
	plain, err := resolveCredential("", false)
	require.NoError(t, err)
	require.Empty(t, plain)
}

func TestResolveCredentialPlaintextFallback(t *testing.T) {
	// Not decryptable under the configured key.
	_, err := resolveCredential("raw-secret", false)
	require.Error(t, err)

	plain, err := resolveCredential("raw-secret", true)
	require.NoError(t, err)
	require.Equal(t, "raw-secret", plain)
}
