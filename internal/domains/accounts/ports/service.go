package ports

import (
	"context"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
)

// Service exposes the account use cases to the portal handlers.
type Service interface {
	SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) (*CodeDelivery, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) domain.SessionContext
	CurrentUser(ctx context.Context, session domain.Session) (*domain.User, error)
	GetAttributes(ctx context.Context, session domain.Session) (domain.Attributes, error)
	UpdateAttributes(ctx context.Context, session domain.Session, attrs domain.Attributes) (domain.Attributes, error)
	ForgotPassword(ctx context.Context, email string) (*CodeDelivery, error)
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
