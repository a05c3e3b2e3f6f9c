package middleware

import (
	"net/http"
	"slices"
	"strings"

	"utkal-mart/internal/domain"

	"go.uber.org/zap"
)

// RequireBuyer lets only buyer accounts through
func RequireBuyer(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.RoleBuyer)
}

// RequireRole rejects authenticated users whose role is not listed with 403.
// It must run after AuthMiddleware.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	denied := "requires " + strings.Join(roles, " or ") + " role"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := GetUserRole(r.Context())
			if !slices.Contains(roles, role) {
				logger.Warn("Role not permitted",
					zap.String("path", r.URL.Path),
					zap.String("role", role),
					zap.Strings("allowed", roles),
				)
				RespondWithErrorCode(w, http.StatusForbidden, CodeForbidden, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
