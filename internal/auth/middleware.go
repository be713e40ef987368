package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/homeinspect/internal/domain"
)

// CookieName is the cookie that carries the session token for browsers.
const CookieName = "session"

type contextKey int

const (
	userKey contextKey = iota
	sessionKey
)

func WithUser(ctx context.Context, user *domain.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, sessionID)
}

// UserFromContext returns the signed-in user placed by Middleware.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok && u != nil
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey).(string)
	return id
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the caller's identity when a token is present. It never
// rejects a request itself; handlers that need a user call UserFromContext.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, sessionID, err := a.Verify(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				a.logger.Error("failed to verify session", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, sessionID)))
	})
}
