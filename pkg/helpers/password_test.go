package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	h1, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)
	h2, err := HashPassword("Secr3t!pass")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "each hash carries its own salt")
	assert.True(t, CompareHashAndPassword(h1, "Secr3t!pass"))
	assert.True(t, CompareHashAndPassword(h2, "Secr3t!pass"))
	assert.False(t, CompareHashAndPassword(h1, "secr3t!pass"))
	assert.False(t, CompareHashAndPassword("not-a-hash", "Secr3t!pass"))
}

func TestRandomToken(t *testing.T) {
	a, err := GenResetToken()
	require.NoError(t, err)
	b, err := GenResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}
