package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE(t *testing.T) {
	pkce := GeneratePKCE()

	// RFC 7636 verifiers are at least 43 characters
	assert.GreaterOrEqual(t, len(pkce.CodeVerifier), 43)
	assert.Equal(t, PKCEMethodS256, pkce.CodeChallengeMethod)

	hash := sha256.Sum256([]byte(pkce.CodeVerifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), pkce.CodeChallenge)
}

func TestGeneratePKCE_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pkce := GeneratePKCE()
		require.False(t, seen[pkce.CodeVerifier], "generated duplicate CodeVerifier")
		seen[pkce.CodeVerifier] = true
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	require.NoError(t, err)

	// 32 bytes = 43 base64url chars
	assert.Len(t, state, 43)

	other, err := GenerateState()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}
