package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

const tracerName = "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/observability/service"

// Service decorates the account service with tracing, logging, and metrics.
// Credentials and email addresses are never logged.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core account service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

func (s *Service) SignUp(ctx context.Context, input ports.SignUpInput) (*ports.SignUpResult, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.SignUp")
	defer span.End()
	result, err := s.inner.SignUp(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "sign up failed")
	}
	s.metrics.add(ctx, s.metrics.signUps)
	s.logInfo(ctx, "account signed up", slog.String("user.id", result.UserID))
	return result, nil
}

func (s *Service) ConfirmSignUp(ctx context.Context, email, code string) error {
	ctx, span := s.tracer.Start(ctx, "AccountService.ConfirmSignUp")
	defer span.End()
	if err := s.inner.ConfirmSignUp(ctx, email, code); err != nil {
		return s.handleError(ctx, span, err, "sign up confirmation failed")
	}
	return nil
}

func (s *Service) ResendCode(ctx context.Context, email string) (*ports.CodeDelivery, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.ResendCode")
	defer span.End()
	delivery, err := s.inner.ResendCode(ctx, email)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "resending confirmation code failed")
	}
	return delivery, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.SignIn")
	defer span.End()
	session, err := s.inner.SignIn(ctx, email, password)
	if err != nil {
		s.metrics.add(ctx, s.metrics.signInFailures)
		return nil, s.handleError(ctx, span, err, "sign in failed")
	}
	span.SetAttributes(attribute.String("user.id", session.User.ID))
	s.metrics.add(ctx, s.metrics.signIns)
	s.logInfo(ctx, "user signed in", slog.String("user.id", session.User.ID))
	return session, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AccountService.SignOut")
	defer span.End()
	if err := s.inner.SignOut(ctx, token); err != nil {
		return s.handleError(ctx, span, err, "sign out failed")
	}
	return nil
}

// Resolve runs on every request and is only traced.
func (s *Service) Resolve(ctx context.Context, token string) domain.SessionContext {
	ctx, span := s.tracer.Start(ctx, "AccountService.Resolve")
	defer span.End()
	sc := s.inner.Resolve(ctx, token)
	span.SetAttributes(attribute.Bool("session.authenticated", sc.IsAuthenticated()))
	if !sc.IsAuthenticated() {
		span.SetAttributes(attribute.String("session.reason", sc.Reason()))
	}
	return sc
}

func (s *Service) CurrentUser(ctx context.Context, session domain.Session) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.CurrentUser", trace.WithAttributes(attribute.String("user.id", session.User.ID)))
	defer span.End()
	user, err := s.inner.CurrentUser(ctx, session)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "loading current user failed", slog.String("user.id", session.User.ID))
	}
	return user, nil
}

func (s *Service) GetAttributes(ctx context.Context, session domain.Session) (domain.Attributes, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.GetAttributes", trace.WithAttributes(attribute.String("user.id", session.User.ID)))
	defer span.End()
	attrs, err := s.inner.GetAttributes(ctx, session)
	if err != nil {
		return domain.Attributes{}, s.handleError(ctx, span, err, "loading attributes failed", slog.String("user.id", session.User.ID))
	}
	return attrs, nil
}

func (s *Service) UpdateAttributes(ctx context.Context, session domain.Session, attrs domain.Attributes) (domain.Attributes, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.UpdateAttributes", trace.WithAttributes(attribute.String("user.id", session.User.ID)))
	defer span.End()
	updated, err := s.inner.UpdateAttributes(ctx, session, attrs)
	if err != nil {
		return domain.Attributes{}, s.handleError(ctx, span, err, "updating attributes failed", slog.String("user.id", session.User.ID))
	}
	s.logInfo(ctx, "attributes updated", slog.String("user.id", session.User.ID))
	return updated, nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (*ports.CodeDelivery, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.ForgotPassword")
	defer span.End()
	delivery, err := s.inner.ForgotPassword(ctx, email)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "password reset request failed")
	}
	return delivery, nil
}

func (s *Service) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	ctx, span := s.tracer.Start(ctx, "AccountService.ConfirmForgotPassword")
	defer span.End()
	if err := s.inner.ConfirmForgotPassword(ctx, email, code, newPassword); err != nil {
		return s.handleError(ctx, span, err, "password reset confirmation failed")
	}
	return nil
}

func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.PurgeExpiredSessions")
	defer span.End()
	purged, err := s.inner.PurgeExpiredSessions(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "purging expired sessions failed")
	}
	span.SetAttributes(attribute.Int64("session.purged", purged))
	s.logInfo(ctx, "expired sessions purged", slog.Int64("count", purged))
	return purged, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	return err
}

type serviceMetrics struct {
	signUps        metric.Int64Counter
	signIns        metric.Int64Counter
	signInFailures metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	signUps, _ := m.Int64Counter("accounts.signups", metric.WithDescription("Accounts registered"))
	signIns, _ := m.Int64Counter("accounts.signins", metric.WithDescription("Successful sign ins"))
	signInFailures, _ := m.Int64Counter("accounts.signin_failures", metric.WithDescription("Rejected sign ins"))
	return serviceMetrics{signUps: signUps, signIns: signIns, signInFailures: signInFailures}
}

func (m serviceMetrics) add(ctx context.Context, counter metric.Int64Counter) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1)
}

var _ ports.Service = (*Service)(nil)
