package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionContext_Variants(t *testing.T) {
	anon := Unauthenticated("")
	require.False(t, anon.IsAuthenticated())
	require.Equal(t, ReasonNoSession, anon.Reason())
	require.Empty(t, anon.UserID())
	_, ok := anon.Session()
	require.False(t, ok)

	authed := Authenticated(Session{Token: "t", User: User{ID: "u1"}})
	require.True(t, authed.IsAuthenticated())
	require.Empty(t, authed.Reason())
	require.Equal(t, "u1", authed.UserID())
	session, ok := authed.Session()
	require.True(t, ok)
	require.Equal(t, "t", session.Token)
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.False(t, Session{}.Expired(now))
	require.False(t, Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	require.True(t, Session{ExpiresAt: now}.Expired(now))
}

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("  Ann@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", email)

	for _, bad := range []string{"", "ann", "Ann <ann@example.com>"} {
		_, err := NormalizeEmail(bad)
		require.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
}

func TestUser_DisplayName(t *testing.T) {
	require.Equal(t, "Ann Lee", User{GivenName: "Ann", FamilyName: "Lee"}.DisplayName())
	require.Equal(t, "ann@example.com", User{Email: "ann@example.com"}.DisplayName())
}
