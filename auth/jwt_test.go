package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateTokenRoundTrip(t *testing.T) {
	svc, err := NewService("a-sixteen-char-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueToken("alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, err := NewService("a-sixteen-char-secret", time.Hour)
	require.NoError(t, err)
	token, err := svc.IssueToken("alice")
	require.NoError(t, err)

	other, err := NewService("a-different-secret-here", time.Hour)
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, err := NewService("a-sixteen-char-secret", time.Millisecond)
	require.NoError(t, err)
	token, err := svc.IssueToken("alice")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewServiceRejectsShortSecret(t *testing.T) {
	_, err := NewService("short", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}
