package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tahaet/book-ecommerce/internal/domain"
)

type contextKey string

const userKey contextKey = "current_user"

// SessionCookieName is the cookie the session token travels in for
// browser clients; API clients use the Authorization header instead.
const SessionCookieName = "jwt"

// LoggedOutCookieValue is the placeholder logout writes into the cookie,
// so stale browsers present something recognizably dead.
const LoggedOutCookieValue = "loggedout"

// UserLoader resolves a session token to a live user. The auth service
// implements it; tests swap in a stub.
type UserLoader interface {
	UserFromToken(ctx context.Context, token string) (*domain.User, error)
}

// Protect rejects requests without a valid session and stores the
// resolved user in the request context. The token is read from the
// Authorization header first, falling back to the session cookie.
func Protect(loader UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				logger.Debug("Request with no session token",
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "you are not logged in, please log in first")
				return
			}

			user, err := loader.UserFromToken(r.Context(), tokenString)
			if err != nil {
				logger.Debug("Session token rejected", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != LoggedOutCookieValue {
		return cookie.Value
	}
	return ""
}

// CurrentUser extracts the authenticated user from the request context.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// WithUser returns a context carrying the user, for handler tests that
// bypass Protect.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
