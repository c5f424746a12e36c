package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := SignToken("topsecret", "user-1", "jo@example.com", time.Hour)
	require.NoError(t, err)

	userID, email, err := ParseToken("topsecret", tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "jo@example.com", email)
}

func TestParseTokenWrongSecret(t *testing.T) {
	tok, err := SignToken("topsecret", "user-1", "jo@example.com", time.Hour)
	require.NoError(t, err)

	_, _, err = ParseToken("othersecret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpired(t *testing.T) {
	tok, err := SignToken("topsecret", "user-1", "jo@example.com", -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseToken("topsecret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenGarbage(t *testing.T) {
	_, _, err := ParseToken("topsecret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionContext(t *testing.T) {
	ctx := WithSession(context.Background(), Session{UserID: "u1", Email: "a@b.c", Admin: true})
	s, ok := SessionFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
	assert.True(t, s.Admin)

	_, ok = SessionFrom(context.Background())
	assert.False(t, ok)
}
