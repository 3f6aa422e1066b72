package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureToken(t *testing.T) {
	tok := SecureToken()
	require.NotEmpty(t, tok)

	// default is 16 bytes, unpadded url-safe base64
	assert.Len(t, tok, 22)

	other := SecureToken()
	assert.NotEqual(t, tok, other)

	long := SecureToken(32)
	assert.Len(t, long, 43)
}
