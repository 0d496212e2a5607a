// Package session owns the authentication token for the lifetime of the
// process. It is the only component allowed to change the token; every
// view reads it through a Store passed to it at construction.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned by Login when given a blank token.
var ErrEmptyToken = errors.New("session: empty token")

// Credential receives the bearer token to attach to outbound requests.
// An empty string removes the credential.
type Credential interface {
	SetToken(token string)
}

// Snapshot is an immutable view of the session taken for one render
// pass or one request.
type Snapshot struct {
	Token string
}

// LoggedIn reports whether the snapshot holds a token.
func (s Snapshot) LoggedIn() bool {
	return s.Token != ""
}

// Subject returns the token's "sub" (or "email") claim for display.
func (s Snapshot) Subject() string {
	return subjectOf(s.Token)
}

// Store is the single source of truth for authentication state.
type Store struct {
	mu          sync.RWMutex
	token       string
	persist     TokenStore
	credentials []Credential
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCredential attaches a credential sink at construction time.
func WithCredential(c Credential) Option {
	return func(s *Store) { s.credentials = append(s.credentials, c) }
}

// Open creates a store backed by persist and loads any previously saved
// token. A restored token is trusted as-is: no request is made to check
// it, and a revoked token surfaces only as an auth error on the first
// authenticated call. A load failure leaves the session logged out and is
// returned so the caller can report it.
func Open(persist TokenStore, opts ...Option) (*Store, error) {
	s := &Store{persist: persist, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	var loadErr error
	if persist != nil {
		tok, err := persist.Load()
		if err != nil {
			loadErr = fmt.Errorf("session.Open: %w", err)
		} else {
			s.token = tok
		}
	}
	s.arm(s.token)
	if s.token != "" {
		s.logger.Info("session restored", "subject", s.Subject())
	}
	return s, loadErr
}

// Attach registers c and immediately hands it the current token.
func (s *Store) Attach(c Credential) {
	s.mu.Lock()
	s.credentials = append(s.credentials, c)
	tok := s.token
	s.mu.Unlock()
	c.SetToken(tok)
}

// Login replaces the session token, persists it and arms every attached
// credential. If persisting fails the in-memory session is still logged
// in and the error is returned: the session will not survive a restart.
func (s *Store) Login(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.mu.Lock()
	s.token = token
	creds := s.credentials
	s.mu.Unlock()

	for _, c := range creds {
		c.SetToken(token)
	}
	s.logger.Info("logged in", "subject", subjectOf(token))

	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(token); err != nil {
		s.logger.Warn("token not persisted", "error", err)
		return fmt.Errorf("session.Login: %w", err)
	}
	return nil
}

// Logout clears the token, erases the persisted copy and disarms every
// credential. Logging out while logged out is a no-op.
func (s *Store) Logout() error {
	s.mu.Lock()
	was := s.token
	s.token = ""
	creds := s.credentials
	s.mu.Unlock()

	for _, c := range creds {
		c.SetToken("")
	}
	if was != "" {
		s.logger.Info("logged out")
	}

	if s.persist == nil {
		return nil
	}
	if err := s.persist.Clear(); err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// IsLoggedIn reports whether a token is currently held.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Snapshot returns a stable copy of the session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Token: s.token}
}

// Subject returns the token's "sub" (or "email") claim for display. The
// signature is not checked; this is never used for an access decision.
func (s *Store) Subject() string {
	return s.Snapshot().Subject()
}

func (s *Store) arm(token string) {
	s.mu.RLock()
	creds := s.credentials
	s.mu.RUnlock()
	for _, c := range creds {
		c.SetToken(token)
	}
}

func subjectOf(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	if email, ok := claims["email"].(string); ok {
		return email
	}
	return ""
}
