package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sitebuilder-service/internal/model"
	"sitebuilder-service/internal/response"
	"sitebuilder-service/pkg/jwtutil"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// Auth validates bearer session tokens and loads the acting user and tenant
type Auth struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

// NewAuth creates the authentication middleware
func NewAuth(db *gorm.DB, jwt *jwtutil.JWTUtil) *Auth {
	return &Auth{db: db, jwt: jwt}
}

// Middleware validates the JWT token from the Authorization header, then loads
// the referenced user and their tenant into the request context. Signature and
// expiry are checked before any database access so forged tokens never cost a
// storage read.
func (a *Auth) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return response.Error(c, http.StatusUnauthorized, "missing authorization token")
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return response.Error(c, http.StatusUnauthorized, "invalid authorization format, expected Bearer token")
		}

		tokenString := parts[1]

		// Validate the token
		claims, err := a.jwt.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Invalid or expired token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		}

		// Load the acting user; a deleted user invalidates the token even if
		// its signature is still good
		var user model.User
		if result := a.db.First(&user, claims.UserID); result.Error != nil {
			log.Warn("Token references unknown user", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("user_not_found")
			return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		}

		var tenant model.Tenant
		if result := a.db.First(&tenant, user.TenantID); result.Error != nil {
			log.Error("User's tenant no longer exists",
				zap.Uint("user_id", user.ID),
				zap.Uint("tenant_id", user.TenantID))
			prometheus.RecordAuthError("tenant_not_found")
			return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		}

		// Store user and tenant info in context for later use
		c.Set(ContextUser, &user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextTenant, &tenant)
		c.Set(ContextTenantID, tenant.ID)

		log.Debug("Request authenticated with tenant context",
			zap.Uint("user_id", user.ID),
			zap.Uint("tenant_id", tenant.ID),
			zap.String("role", user.Role))

		return next(c)
	}
}
