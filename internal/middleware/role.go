package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sitebuilder-service/internal/response"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// RequireRole rejects the request unless the acting user's role is in the
// whitelist. Must run after the auth middleware; a request that reaches it
// without an authenticated user is rejected outright.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			role, ok := RoleFromContext(c)
			if !ok {
				log.Error("Role check reached without authenticated user")
				prometheus.RecordAuthError("missing_role_context")
				return response.Error(c, http.StatusForbidden, "insufficient role")
			}

			if _, ok := allowed[role]; !ok {
				log.Warn("Insufficient role for operation",
					zap.String("role", role),
					zap.String("path", c.Path()))
				prometheus.RecordAuthError("insufficient_role")
				return response.Error(c, http.StatusForbidden, "insufficient role")
			}

			return next(c)
		}
	}
}
