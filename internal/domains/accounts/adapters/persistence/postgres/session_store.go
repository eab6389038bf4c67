package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	"github.com/Apurer/pet-portal/internal/domains/accounts/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore persists portal sessions in PostgreSQL. Caller owns DB lifecycle.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

type sessionRecord struct {
	Token         string    `gorm:"primaryKey;column:token;size:128"`
	AccessToken   string    `gorm:"column:access_token;size:4096"`
	UserID        string    `gorm:"column:user_id;size:128;index"`
	Email         string    `gorm:"column:email"`
	GivenName     string    `gorm:"column:given_name"`
	FamilyName    string    `gorm:"column:family_name"`
	EmailVerified bool      `gorm:"column:email_verified"`
	ExpiresAt     time.Time `gorm:"column:expires_at;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "portal_sessions" }

// Save upserts the session keyed by token.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(session.Token) == "" {
		return errors.New("session token is required")
	}
	rec := toRecord(session)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "given_name", "family_name", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := s.db.WithContext(ctx).First(&rec, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, err
	}
	session := toDomain(rec)
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "token = ?", token).Error
}

// PurgeExpired removes sessions that expired at or before now.
func (s *SessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

func toRecord(session domain.Session) sessionRecord {
	return sessionRecord{
		Token:         session.Token,
		AccessToken:   session.AccessToken,
		UserID:        session.User.ID,
		Email:         session.User.Email,
		GivenName:     session.User.GivenName,
		FamilyName:    session.User.FamilyName,
		EmailVerified: session.User.EmailVerified,
		ExpiresAt:     session.ExpiresAt,
		CreatedAt:     session.CreatedAt,
	}
}

func toDomain(rec sessionRecord) domain.Session {
	return domain.Session{
		Token:       rec.Token,
		AccessToken: rec.AccessToken,
		User: domain.User{
			ID:            rec.UserID,
			Email:         rec.Email,
			GivenName:     rec.GivenName,
			FamilyName:    rec.FamilyName,
			EmailVerified: rec.EmailVerified,
		},
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}
}
