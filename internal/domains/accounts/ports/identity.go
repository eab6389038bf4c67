package ports

import (
	"context"
	"errors"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
)

var (
	// ErrUnauthenticated means the caller has no valid credentials or session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidInput marks requests the identity provider rejected as malformed or conflicting.
	ErrInvalidInput = errors.New("invalid account input")
	// ErrIdentityUpstream wraps any other identity provider failure.
	ErrIdentityUpstream = errors.New("identity provider unavailable")
)

type SignUpInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// CodeDelivery tells the user where a confirmation code was sent.
type CodeDelivery struct {
	Destination string `json:"destination"`
	Medium      string `json:"medium"`
}

type SignUpResult struct {
	UserID    string       `json:"user_id"`
	Confirmed bool         `json:"confirmed"`
	Delivery  CodeDelivery `json:"delivery"`
}

// AuthResult is returned by a successful sign in. ExpiresIn is in seconds.
type AuthResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	User        domain.User `json:"user"`
}

// IdentityProvider is the external user directory.
type IdentityProvider interface {
	SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) (*CodeDelivery, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*domain.User, error)
	GetAttributes(ctx context.Context, accessToken string) (domain.Attributes, error)
	UpdateAttributes(ctx context.Context, accessToken string, attrs domain.Attributes) error
	ForgotPassword(ctx context.Context, email string) (*CodeDelivery, error)
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
}
