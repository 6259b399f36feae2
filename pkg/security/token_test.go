package security

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		tok, err := GenerateToken()
		require.NoError(t, err)
		assert.Len(t, tok, 43)
		assert.NotContains(t, tok, "+")
		assert.NotContains(t, tok, "/")
		assert.NotContains(t, tok, "=")

		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, tokenSize)

		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestMakeResetToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r, err := MakeResetToken(&ResetTokenOpts{UserID: 7, TTL: time.Hour, Now: now})
	require.NoError(t, err)

	assert.EqualValues(t, 7, r.UserID)
	assert.Equal(t, now.Add(time.Hour), r.ExpiresAt)
	assert.False(t, r.Used)
	assert.NotEmpty(t, r.Token)

	assert.False(t, r.Expired(now.Add(59*time.Minute)))
	assert.True(t, r.Expired(now.Add(time.Hour)))
	assert.True(t, r.Expired(now.Add(2*time.Hour)))
}

func TestMakeResetToken_BadOpts(t *testing.T) {
	for _, o := range []*ResetTokenOpts{nil, {TTL: time.Hour}, {UserID: 1}} {
		_, err := MakeResetToken(o)
		assert.Error(t, err)
	}
}
