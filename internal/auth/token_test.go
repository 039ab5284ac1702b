package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fabrika-mes/fabrika/internal/shared"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, exp, err := issuer.Issue(User{ID: 7, Username: "warehouse", Role: RoleStaff})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.UserID)
	require.Equal(t, "warehouse", claims.Username)
	require.Equal(t, RoleStaff, claims.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := issuer.Issue(User{ID: 1, Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = other.Parse(token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := &TokenIssuer{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := issuer.Issue(User{ID: 1, Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Parse("not-a-token")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
