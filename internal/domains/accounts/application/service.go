package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

const DefaultSessionTTL = 24 * time.Hour

// Service issues portal sessions on top of the identity provider.
type Service struct {
	identity ports.IdentityProvider
	sessions ports.SessionStore
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

type Option func(*Service)

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithTokenGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

func NewService(identity ports.IdentityProvider, sessions ports.SessionStore, opts ...Option) *Service {
	s := &Service{
		identity: identity,
		sessions: sessions,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) SignUp(ctx context.Context, input ports.SignUpInput) (*ports.SignUpResult, error) {
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, mapError(err)
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, mapError(err)
	}
	input.Email = email
	input.GivenName = strings.TrimSpace(input.GivenName)
	input.FamilyName = strings.TrimSpace(input.FamilyName)
	if input.GivenName == "" {
		return nil, mapError(domain.ErrEmptyGivenName)
	}
	result, err := s.identity.SignUp(ctx, input)
	return result, mapError(err)
}

func (s *Service) ConfirmSignUp(ctx context.Context, email, code string) error {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return mapError(err)
	}
	if err := domain.ValidateCode(code); err != nil {
		return mapError(err)
	}
	return mapError(s.identity.ConfirmSignUp(ctx, email, strings.TrimSpace(code)))
}

func (s *Service) ResendCode(ctx context.Context, email string) (*ports.CodeDelivery, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, mapError(err)
	}
	delivery, err := s.identity.ResendCode(ctx, email)
	return delivery, mapError(err)
}

// SignIn authenticates with the identity provider and stores a new portal session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, mapError(err)
	}
	if password == "" {
		return nil, ports.ErrUnauthenticated
	}
	auth, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	ttl := s.ttl
	if auth.ExpiresIn > 0 {
		if providerTTL := time.Duration(auth.ExpiresIn) * time.Second; providerTTL < ttl {
			ttl = providerTTL
		}
	}
	session := domain.Session{
		Token:       s.newToken(),
		AccessToken: auth.AccessToken,
		User:        auth.User,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut ends the provider session and forgets the portal token. Unknown
// tokens are not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if err := s.identity.SignOut(ctx, session.AccessToken); err != nil && !errors.Is(err, ports.ErrUnauthenticated) {
		return mapError(err)
	}
	return s.sessions.Delete(ctx, token)
}

// Resolve maps a token to the request's session context. Store failures
// degrade to an unauthenticated context.
func (s *Service) Resolve(ctx context.Context, token string) domain.SessionContext {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Unauthenticated(domain.ReasonNoSession)
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return domain.Unauthenticated(domain.ReasonUnknownSession)
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return domain.Unauthenticated(domain.ReasonExpired)
	}
	return domain.Authenticated(*session)
}

func (s *Service) CurrentUser(ctx context.Context, session domain.Session) (*domain.User, error) {
	user, err := s.identity.CurrentUser(ctx, session.AccessToken)
	return user, mapError(err)
}

func (s *Service) GetAttributes(ctx context.Context, session domain.Session) (domain.Attributes, error) {
	attrs, err := s.identity.GetAttributes(ctx, session.AccessToken)
	return attrs, mapError(err)
}

// UpdateAttributes changes the first and last name and returns the stored attributes.
func (s *Service) UpdateAttributes(ctx context.Context, session domain.Session, attrs domain.Attributes) (domain.Attributes, error) {
	attrs = domain.Attributes{
		GivenName:  strings.TrimSpace(attrs.GivenName),
		FamilyName: strings.TrimSpace(attrs.FamilyName),
	}
	if err := attrs.Validate(); err != nil {
		return domain.Attributes{}, mapError(err)
	}
	if err := s.identity.UpdateAttributes(ctx, session.AccessToken, attrs); err != nil {
		return domain.Attributes{}, mapError(err)
	}
	return s.GetAttributes(ctx, session)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (*ports.CodeDelivery, error) {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, mapError(err)
	}
	delivery, err := s.identity.ForgotPassword(ctx, email)
	return delivery, mapError(err)
}

func (s *Service) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return mapError(err)
	}
	if err := domain.ValidateCode(code); err != nil {
		return mapError(err)
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return mapError(err)
	}
	return mapError(s.identity.ConfirmForgotPassword(ctx, email, strings.TrimSpace(code), newPassword))
}

func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx, s.now())
}

var _ ports.Service = (*Service)(nil)
