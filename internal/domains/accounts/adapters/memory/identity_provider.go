package memory

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

var _ ports.IdentityProvider = (*IdentityProvider)(nil)

const defaultAccessTokenTTL = time.Hour

type account struct {
	user      domain.User
	hash      []byte
	signUp    string
	resetCode string
}

type accessToken struct {
	email     string
	expiresAt time.Time
}

// IdentityProvider is an in-process user directory for local development and tests.
// Confirmation codes are handed to the configured sink instead of being emailed.
type IdentityProvider struct {
	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]accessToken
	now      func() time.Time
	newCode  func() string
	codeSink func(email, code string)
	cost     int
}

type IdentityOption func(*IdentityProvider)

// WithCodeSink receives every confirmation and reset code that is issued.
func WithCodeSink(sink func(email, code string)) IdentityOption {
	return func(p *IdentityProvider) { p.codeSink = sink }
}

func WithCodeGenerator(fn func() string) IdentityOption {
	return func(p *IdentityProvider) {
		if fn != nil {
			p.newCode = fn
		}
	}
}

// WithBcryptCost lowers the hashing cost, mostly for tests.
func WithBcryptCost(cost int) IdentityOption {
	return func(p *IdentityProvider) { p.cost = cost }
}

func WithIdentityClock(now func() time.Time) IdentityOption {
	return func(p *IdentityProvider) {
		if now != nil {
			p.now = now
		}
	}
}

func NewIdentityProvider(opts ...IdentityOption) *IdentityProvider {
	p := &IdentityProvider{
		accounts: map[string]*account{},
		tokens:   map[string]accessToken{},
		now:      time.Now,
		newCode:  randomCode,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *IdentityProvider) SignUp(_ context.Context, input ports.SignUpInput) (*ports.SignUpResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[input.Email]; exists {
		return nil, fmt.Errorf("%w: an account with this email already exists", ports.ErrInvalidInput)
	}
	acct := &account{
		user: domain.User{
			ID:         uuid.NewString(),
			Email:      input.Email,
			GivenName:  input.GivenName,
			FamilyName: input.FamilyName,
		},
		hash:   hash,
		signUp: p.newCode(),
	}
	p.accounts[input.Email] = acct
	p.deliver(input.Email, acct.signUp)
	return &ports.SignUpResult{UserID: acct.user.ID, Delivery: delivery(input.Email)}, nil
}

func (p *IdentityProvider) ConfirmSignUp(_ context.Context, email, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[email]
	if !ok || acct.signUp == "" || acct.signUp != code {
		return fmt.Errorf("%w: invalid confirmation code", ports.ErrInvalidInput)
	}
	acct.user.EmailVerified = true
	acct.signUp = ""
	return nil
}

func (p *IdentityProvider) ResendCode(_ context.Context, email string) (*ports.CodeDelivery, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[email]
	if !ok || acct.user.EmailVerified {
		return nil, fmt.Errorf("%w: no pending confirmation for this email", ports.ErrInvalidInput)
	}
	acct.signUp = p.newCode()
	p.deliver(email, acct.signUp)
	d := delivery(email)
	return &d, nil
}

func (p *IdentityProvider) SignIn(_ context.Context, email, password string) (*ports.AuthResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[email]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return nil, fmt.Errorf("%w: incorrect email or password", ports.ErrUnauthenticated)
	}
	if !acct.user.EmailVerified {
		return nil, fmt.Errorf("%w: account is not confirmed", ports.ErrUnauthenticated)
	}
	token := uuid.NewString()
	p.tokens[token] = accessToken{email: email, expiresAt: p.now().Add(defaultAccessTokenTTL)}
	return &ports.AuthResult{
		AccessToken: token,
		ExpiresIn:   int64(defaultAccessTokenTTL / time.Second),
		User:        acct.user,
	}, nil
}

// SignOut revokes every access token of the token's owner.
func (p *IdentityProvider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.accountFor(token)
	if err != nil {
		return err
	}
	for t, issued := range p.tokens {
		if issued.email == acct.user.Email {
			delete(p.tokens, t)
		}
	}
	return nil
}

func (p *IdentityProvider) CurrentUser(_ context.Context, token string) (*domain.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.accountFor(token)
	if err != nil {
		return nil, err
	}
	user := acct.user
	return &user, nil
}

func (p *IdentityProvider) GetAttributes(_ context.Context, token string) (domain.Attributes, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.accountFor(token)
	if err != nil {
		return domain.Attributes{}, err
	}
	return domain.Attributes{Email: acct.user.Email, GivenName: acct.user.GivenName, FamilyName: acct.user.FamilyName}, nil
}

func (p *IdentityProvider) UpdateAttributes(_ context.Context, token string, attrs domain.Attributes) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, err := p.accountFor(token)
	if err != nil {
		return err
	}
	acct.user.GivenName = attrs.GivenName
	acct.user.FamilyName = attrs.FamilyName
	return nil
}

func (p *IdentityProvider) ForgotPassword(_ context.Context, email string) (*ports.CodeDelivery, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[email]
	if !ok {
		return nil, fmt.Errorf("%w: no account for this email", ports.ErrInvalidInput)
	}
	acct.resetCode = p.newCode()
	p.deliver(email, acct.resetCode)
	d := delivery(email)
	return &d, nil
}

func (p *IdentityProvider) ConfirmForgotPassword(_ context.Context, email, code, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrInvalidInput, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[email]
	if !ok || acct.resetCode == "" || acct.resetCode != code {
		return fmt.Errorf("%w: invalid reset code", ports.ErrInvalidInput)
	}
	acct.hash = hash
	acct.resetCode = ""
	return nil
}

// accountFor resolves an access token; callers hold p.mu.
func (p *IdentityProvider) accountFor(token string) (*account, error) {
	issued, ok := p.tokens[token]
	if !ok || !p.now().Before(issued.expiresAt) {
		delete(p.tokens, token)
		return nil, ports.ErrUnauthenticated
	}
	acct, ok := p.accounts[issued.email]
	if !ok {
		return nil, ports.ErrUnauthenticated
	}
	return acct, nil
}

func (p *IdentityProvider) deliver(email, code string) {
	if p.codeSink != nil {
		p.codeSink(email, code)
	}
}

func delivery(email string) ports.CodeDelivery {
	masked := email
	if at := strings.Index(email, "@"); at > 0 {
		masked = email[:1] + "***" + email[at:]
	}
	return ports.CodeDelivery{Destination: masked, Medium: "EMAIL"}
}

func randomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}
