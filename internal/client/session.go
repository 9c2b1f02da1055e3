package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"portfolio-api/internal/admin"

	"github.com/99designs/keyring"
)

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

const sessionKey = "admin-session"

var ErrNotAttached = errors.New("session is not attached to a client")

// snapshot is the persisted form of a session.
type snapshot struct {
	Admin           *admin.Profile `json:"admin"`
	Token           string         `json:"token"`
	IsAuthenticated bool           `json:"isAuthenticated"`
}

type authAPI interface {
	login(ctx context.Context, email, password string) (string, *admin.Profile, error)
	verify(ctx context.Context) (*admin.Profile, error)
}

// Session is the admin's login state. Transitions:
// anonymous -> authenticating -> authenticated | anonymous,
// authenticated -> anonymous on Logout or on any 401 seen by the Client.
type Session struct {
	mu     sync.Mutex
	ring   keyring.Keyring
	logger *slog.Logger
	api    authAPI

	state State
	admin *admin.Profile
	token string
}

// NewSession restores a previously persisted session from ring, if any.
func NewSession(ring keyring.Keyring, logger *slog.Logger) (*Session, error) {
	s := &Session{
		ring:   ring,
		logger: logger,
		state:  StateAnonymous,
	}

	item, err := ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(item.Data, &snap); err != nil {
		logger.Warn("discarding unreadable session", "error", err)
		return s, nil
	}
	if snap.IsAuthenticated && snap.Token != "" {
		s.admin = snap.Admin
		s.token = snap.Token
		s.state = StateAuthenticated
	}
	return s, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Admin() *admin.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admin == nil {
		return nil
	}
	profile := *s.admin
	return &profile
}

func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Login exchanges credentials for a token. On failure the session and its
// persisted copy are cleared and the error carries the server's message.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	api := s.api
	if api == nil {
		s.mu.Unlock()
		return ErrNotAttached
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	token, profile, err := api.login(ctx, email, password)
	if err != nil {
		if rmErr := s.Logout(); rmErr != nil {
			s.logger.Warn("logout after failed login", "error", rmErr)
		}
		return normalizeLoginError(err)
	}

	s.mu.Lock()
	s.token = token
	s.admin = profile
	s.state = StateAuthenticated
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
	return nil
}

// Logout clears the session and its persisted copy.
func (s *Session) Logout() error {
	s.clear()
	err := s.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// VerifyToken reports whether the held token is still accepted by the
// server. Without a token no request is made. Any failure logs out.
func (s *Session) VerifyToken(ctx context.Context) bool {
	s.mu.Lock()
	token, api := s.token, s.api
	s.mu.Unlock()

	if token == "" {
		return false
	}
	if api == nil {
		return false
	}

	profile, err := api.verify(ctx)
	if err != nil {
		s.logger.Debug("token verification failed", "error", err)
		if err := s.Logout(); err != nil {
			s.logger.Warn("logout after failed verification", "error", err)
		}
		return false
	}

	s.mu.Lock()
	s.admin = profile
	s.state = StateAuthenticated
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
	return true
}

func (s *Session) attach(api authAPI) {
	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.admin = nil
	s.state = StateAnonymous
	s.mu.Unlock()
}

func (s *Session) persist() error {
	s.mu.Lock()
	snap := snapshot{
		Admin:           s.admin,
		Token:           s.token,
		IsAuthenticated: s.state == StateAuthenticated,
	}
	s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.ring.Set(keyring.Item{
		Key:         sessionKey,
		Data:        data,
		Label:       "portfolio-api admin session",
		Description: "Bearer token for the portfolio admin API",
	})
}

func normalizeLoginError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr
	}
	return &APIError{Message: "Login failed", err: err}
}
