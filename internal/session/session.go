package session

import (
	"errors"
	"log/slog"
	"time"
)

// Storage keys.
const (
	TokenKey     = "authToken"
	UserEmailKey = "authUserEmail"
)

// Session is the client-side authentication context shared by every view.
// It never validates tokens; it only reads their unverified expiry.
type Session struct {
	store Storage
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger used for storage failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// New creates a Session over the given storage.
func New(store Storage, opts ...Option) *Session {
	s := &Session{
		store: store,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the stored bearer token.
func (s *Session) Token() (string, bool) {
	return s.get(TokenKey)
}

// SetToken stores the bearer token.
func (s *Session) SetToken(token string) error {
	return s.store.Set(TokenKey, token)
}

// DeleteToken removes the stored bearer token.
func (s *Session) DeleteToken() error {
	return s.store.Delete(TokenKey)
}

// UserEmail returns the stored email. It may be stale; use CurrentUser for
// anything shown to the user.
func (s *Session) UserEmail() (string, bool) {
	return s.get(UserEmailKey)
}

// SetUserEmail stores the authenticated user's email.
func (s *Session) SetUserEmail(email string) error {
	return s.store.Set(UserEmailKey, email)
}

// DeleteUserEmail removes the stored email.
func (s *Session) DeleteUserEmail() error {
	return s.store.Delete(UserEmailKey)
}

// IsAuthenticated reports whether a token is stored, decodes, and expires
// strictly after the current time. Any failure counts as anonymous.
func (s *Session) IsAuthenticated() bool {
	token, ok := s.Token()
	if !ok || token == "" {
		return false
	}
	exp, err := TokenExpiry(token)
	if err != nil {
		s.log.Debug("decoding stored token", "error", err)
		return false
	}
	return exp.After(s.now())
}

// CurrentUser returns the stored email only while the session is
// authenticated.
func (s *Session) CurrentUser() (string, bool) {
	if !s.IsAuthenticated() {
		return "", false
	}
	return s.UserEmail()
}

// Login records a freshly issued token for email.
func (s *Session) Login(token, email string) error {
	if err := s.SetToken(token); err != nil {
		return err
	}
	return s.SetUserEmail(email)
}

// Clear removes both the token and the email.
func (s *Session) Clear() error {
	return errors.Join(s.DeleteToken(), s.DeleteUserEmail())
}

func (s *Session) get(key string) (string, bool) {
	v, ok, err := s.store.Get(key)
	if err != nil {
		s.log.Warn("reading session storage", "key", key, "error", err)
		return "", false
	}
	return v, ok
}
