package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/store"
)

// userRepository is the subset of store.UserStore that Authenticator requires.
type userRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*store.UserRecord, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// sessionRepository is the subset of store.SessionStore that Authenticator requires.
type sessionRepository interface {
	Create(ctx context.Context, id, userID string, expiresAt time.Time) error
	Active(ctx context.Context, id string, now time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Session is what sign-up and sign-in hand back to the caller.
type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type Authenticator struct {
	users    userRepository
	sessions sessionRepository
	tokens   *TokenIssuer
	logger   *slog.Logger
}

func NewAuthenticator(users userRepository, sessions sessionRepository, tokens *TokenIssuer, logger *slog.Logger) *Authenticator {
	return &Authenticator{users: users, sessions: sessions, tokens: tokens, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Authenticator) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &form.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if len(password) < MinPasswordLength {
		return nil, &form.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := a.users.Create(ctx, email, hash)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	a.logger.Info("user signed up", "user_id", user.ID)
	return a.startSession(ctx, user)
}

func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*Session, error) {
	rec, err := a.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if rec == nil || !CheckPassword(rec.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	user := rec.User
	return a.startSession(ctx, &user)
}

func (a *Authenticator) startSession(ctx context.Context, user *domain.User) (*Session, error) {
	token, id, expiresAt, err := a.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := a.sessions.Create(ctx, id, user.ID, expiresAt); err != nil {
		return nil, err
	}
	if n, err := a.sessions.DeleteExpired(ctx, a.tokens.now()); err != nil {
		a.logger.Warn("failed to prune expired sessions", "error", err)
	} else if n > 0 {
		a.logger.Debug("pruned expired sessions", "count", n)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Verify resolves a token to the signed-in user.
func (a *Authenticator) Verify(ctx context.Context, token string) (*domain.User, string, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, "", err
	}
	active, err := a.sessions.Active(ctx, claims.ID, a.tokens.now())
	if err != nil {
		return nil, "", err
	}
	if !active {
		return nil, "", ErrUnauthenticated
	}
	user, err := a.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrUnauthenticated
	}
	return user, claims.ID, nil
}

// SignOut revokes the session named by sessionID. Signing out twice is not
// an error.
func (a *Authenticator) SignOut(ctx context.Context, sessionID string) error {
	err := a.sessions.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
