package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/metrics"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string
	Admin admin.Profile
}

type Service struct {
	admins  admin.Repository
	tokens  *TokenManager
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(admins admin.Repository, tokens *TokenManager, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		admins:  admins,
		tokens:  tokens,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	a, err := s.admins.GetByEmail(ctx, admin.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			s.metrics.RecordLoginAttempt(ctx, "invalid")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(req.Password)); err != nil {
		s.metrics.RecordLoginAttempt(ctx, "invalid")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(a.ID, a.Email)
	if err != nil {
		return nil, err
	}

	if err := s.admins.UpdateLastLogin(ctx, a.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "admin_id", a.ID, "error", err)
	}

	s.metrics.RecordLoginAttempt(ctx, "success")
	return &LoginResult{Token: token, Admin: a.Profile()}, nil
}

// Verify returns the admin behind an already verified identity. An admin
// removed after the token was issued yields ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, id Identity) (*admin.Profile, error) {
	a, err := s.admins.GetByID(ctx, id.AdminID)
	if err != nil {
		if errors.Is(err, admin.ErrAdminNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	profile := a.Profile()
	return &profile, nil
}
