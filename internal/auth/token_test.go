package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	token, id, exp, err := issuer.Issue("user-1", "ann@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, exp.After(time.Now()))

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, id, claims.ID)
}

func TestTokenParse_WrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, _, _, err := a.Issue("user-1", "ann@example.com")
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenParse_Expired(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return issued }
	token, _, _, err := issuer.Issue("user-1", "ann@example.com")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenParse_Garbage(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", time.Hour)
	_, err := issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}
