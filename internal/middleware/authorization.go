package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireRole lets through only users whose role is in the allowed set.
// Must run after Protect. Denied requests stop here; the handler chain
// never sees them.
func RequireRole(logger *zap.Logger, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				logger.Warn("Role check without an authenticated user",
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "you don't have permission to perform this action")
				return
			}

			for _, role := range allowedRoles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("User role not authorized",
				zap.String("role", user.Role),
				zap.Strings("allowed_roles", allowedRoles),
				zap.String("path", r.URL.Path),
			)
			RespondWithError(w, http.StatusForbidden, "you don't have permission to perform this action")
		})
	}
}
