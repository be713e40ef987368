// Package session is the single place that knows who the caller is and how to
// reach the backend. One Session is built at the root and handed to every
// view that needs it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vbonduro/homeinspect/internal/client"
	"github.com/vbonduro/homeinspect/internal/domain"
)

// ErrNotSignedIn means no identity is available. Callers must sign in again.
var ErrNotSignedIn = errors.New("not signed in")

type Session struct {
	client    *client.Client
	tokenFile string
	logger    *slog.Logger

	mu   sync.Mutex
	user *domain.User
}

// New loads a previously saved token from tokenFile, if any, into c. An empty
// tokenFile keeps the token in memory only.
func New(c *client.Client, tokenFile string, logger *slog.Logger) (*Session, error) {
	s := &Session{client: c, tokenFile: tokenFile, logger: logger}
	if tokenFile == "" {
		return s, nil
	}
	data, err := os.ReadFile(tokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	c.SetToken(strings.TrimSpace(string(data)))
	return s, nil
}

func (s *Session) Client() *client.Client {
	return s.client
}

// Current returns the signed-in user. A missing or rejected token yields
// ErrNotSignedIn; a rejected token is also forgotten.
func (s *Session) Current(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		return s.user, nil
	}
	if s.client.Token() == "" {
		return nil, ErrNotSignedIn
	}
	user, err := s.client.CurrentUser(ctx)
	if client.IsUnauthorized(err) {
		s.logger.Debug("stored token rejected")
		s.forget()
		return nil, ErrNotSignedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	s.user = user
	return user, nil
}

// CheckAuth turns a 401 from any backend call into ErrNotSignedIn and forgets
// the rejected token and cached user. Other errors are returned unchanged.
func (s *Session) CheckAuth(err error) error {
	if !client.IsUnauthorized(err) {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("token rejected by server")
	s.forget()
	return fmt.Errorf("%w: %w", ErrNotSignedIn, err)
}

func (s *Session) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.store(resp)
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.store(resp)
}

// SignOut revokes the token on the server and removes it locally. A token the
// server no longer accepts is still removed.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client.Token() == "" {
		return ErrNotSignedIn
	}
	if err := s.client.SignOut(ctx); err != nil && !client.IsUnauthorized(err) {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	s.forget()
	return nil
}

func (s *Session) store(resp *client.AuthResponse) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client.SetToken(resp.Token)
	s.user = resp.User
	if s.tokenFile == "" {
		return resp.User, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0700); err != nil {
		return nil, fmt.Errorf("failed to create token dir: %w", err)
	}
	if err := os.WriteFile(s.tokenFile, []byte(resp.Token+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("failed to write token file: %w", err)
	}
	return resp.User, nil
}

// forget drops the cached user and token. Callers hold s.mu.
func (s *Session) forget() {
	s.user = nil
	s.client.SetToken("")
	if s.tokenFile == "" {
		return
	}
	if err := os.Remove(s.tokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove token file", "path", s.tokenFile, "error", err)
	}
}
