package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	accountmemory "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/memory"
	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) sink(email, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[email] = code
}

func (b *codeBox) last(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *codeBox, *clock, *accountmemory.SessionStore) {
	t.Helper()
	box := &codeBox{codes: map[string]string{}}
	clk := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	identity := accountmemory.NewIdentityProvider(
		accountmemory.WithBcryptCost(bcrypt.MinCost),
		accountmemory.WithCodeSink(box.sink),
		accountmemory.WithIdentityClock(clk.Now),
	)
	sessions := accountmemory.NewSessionStore()
	svc := NewService(identity, sessions, WithClock(clk.Now), WithSessionTTL(30*time.Minute))
	return svc, box, clk, sessions
}

func signUpAndConfirm(t *testing.T, svc *Service, box *codeBox) {
	t.Helper()
	ctx := context.Background()
	result, err := svc.SignUp(ctx, ports.SignUpInput{Email: "Ann@Example.com", Password: "correct-horse", GivenName: "Ann", FamilyName: "Lee"})
	require.NoError(t, err)
	require.False(t, result.Confirmed)
	require.Equal(t, "a***@example.com", result.Delivery.Destination)
	require.NoError(t, svc.ConfirmSignUp(ctx, "ann@example.com", box.last("ann@example.com")))
}

func TestSignInResolveSignOut(t *testing.T) {
	svc, box, _, _ := newTestService(t)
	ctx := context.Background()
	signUpAndConfirm(t, svc, box)

	session, err := svc.SignIn(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "Ann", session.User.GivenName)

	resolved := svc.Resolve(ctx, session.Token)
	require.True(t, resolved.IsAuthenticated())
	require.Equal(t, session.User.ID, resolved.UserID())

	require.NoError(t, svc.SignOut(ctx, session.Token))
	after := svc.Resolve(ctx, session.Token)
	require.False(t, after.IsAuthenticated())
	require.Equal(t, domain.ReasonUnknownSession, after.Reason())

	_, err = svc.CurrentUser(ctx, *session)
	require.ErrorIs(t, err, ports.ErrUnauthenticated)
}

func TestSignIn_Failures(t *testing.T) {
	svc, box, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, ports.SignUpInput{Email: "bob@example.com", Password: "long-enough", GivenName: "Bob"})
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, "bob@example.com", "long-enough")
	require.ErrorIs(t, err, ports.ErrUnauthenticated, "unconfirmed account")

	require.NoError(t, svc.ConfirmSignUp(ctx, "bob@example.com", box.last("bob@example.com")))
	_, err = svc.SignIn(ctx, "bob@example.com", "wrong-password")
	require.ErrorIs(t, err, ports.ErrUnauthenticated)

	_, err = svc.SignIn(ctx, "not-an-email", "whatever")
	require.ErrorIs(t, err, ports.ErrInvalidInput)
}

func TestSignUp_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, ports.SignUpInput{Email: "ann@example.com", Password: "short", GivenName: "Ann"})
	require.ErrorIs(t, err, ports.ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = svc.SignUp(ctx, ports.SignUpInput{Email: "ann@example.com", Password: "long-enough"})
	require.ErrorIs(t, err, domain.ErrEmptyGivenName)

	_, err = svc.SignUp(ctx, ports.SignUpInput{Email: "ann@example.com", Password: "long-enough", GivenName: "Ann"})
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, ports.SignUpInput{Email: "ann@example.com", Password: "long-enough", GivenName: "Ann"})
	require.ErrorIs(t, err, ports.ErrInvalidInput)

	require.ErrorIs(t, svc.ConfirmSignUp(ctx, "ann@example.com", "000000x"), ports.ErrInvalidInput)
}

func TestResolve_ExpiredSessionIsDropped(t *testing.T) {
	svc, box, clk, sessions := newTestService(t)
	ctx := context.Background()
	signUpAndConfirm(t, svc, box)
	session, err := svc.SignIn(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, clk.now.Add(30*time.Minute), session.ExpiresAt)

	clk.now = clk.now.Add(31 * time.Minute)
	resolved := svc.Resolve(ctx, session.Token)
	require.False(t, resolved.IsAuthenticated())
	require.Equal(t, domain.ReasonExpired, resolved.Reason())

	_, err = sessions.Get(ctx, session.Token)
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
	require.Equal(t, domain.ReasonNoSession, svc.Resolve(ctx, "").Reason())
}

func TestUpdateAttributes(t *testing.T) {
	svc, box, _, _ := newTestService(t)
	ctx := context.Background()
	signUpAndConfirm(t, svc, box)
	session, err := svc.SignIn(ctx, "ann@example.com", "correct-horse")
	require.NoError(t, err)

	attrs, err := svc.UpdateAttributes(ctx, *session, domain.Attributes{GivenName: " Anna ", FamilyName: "Park"})
	require.NoError(t, err)
	require.Equal(t, domain.Attributes{Email: "ann@example.com", GivenName: "Anna", FamilyName: "Park"}, attrs)

	_, err = svc.UpdateAttributes(ctx, *session, domain.Attributes{FamilyName: "Park"})
	require.ErrorIs(t, err, ports.ErrInvalidInput)
}

func TestForgotPasswordFlow(t *testing.T) {
	svc, box, _, _ := newTestService(t)
	ctx := context.Background()
	signUpAndConfirm(t, svc, box)

	delivery, err := svc.ForgotPassword(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, "EMAIL", delivery.Medium)

	err = svc.ConfirmForgotPassword(ctx, "ann@example.com", box.last("ann@example.com"), "short")
	require.ErrorIs(t, err, domain.ErrWeakPassword)
	require.NoError(t, svc.ConfirmForgotPassword(ctx, "ann@example.com", box.last("ann@example.com"), "new-password-1"))

	_, err = svc.SignIn(ctx, "ann@example.com", "correct-horse")
	require.ErrorIs(t, err, ports.ErrUnauthenticated)
	_, err = svc.SignIn(ctx, "ann@example.com", "new-password-1")
	require.NoError(t, err)
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, _, clk, sessions := newTestService(t)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, domain.Session{Token: "old", ExpiresAt: clk.now.Add(-time.Minute)}))
	require.NoError(t, sessions.Save(ctx, domain.Session{Token: "fresh", ExpiresAt: clk.now.Add(time.Minute)}))

	purged, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)
	_, err = sessions.Get(ctx, "fresh")
	require.NoError(t, err)
}
