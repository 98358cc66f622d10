package middleware

import (
	"github.com/labstack/echo/v4"

	"sitebuilder-service/internal/model"
)

// Context keys set by the auth and tenant middleware
const (
	ContextUser     = "user"
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextTenant   = "tenant"
	ContextTenantID = "tenant_id"
)

// TenantIDFromContext retrieves the resolved tenant ID from the context.
// Returns 0, false if tenant context is missing.
func TenantIDFromContext(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get(ContextTenantID).(uint)
	return tenantID, ok
}

// TenantFromContext retrieves the resolved tenant record from the context
func TenantFromContext(c echo.Context) (*model.Tenant, bool) {
	tenant, ok := c.Get(ContextTenant).(*model.Tenant)
	return tenant, ok
}

// UserFromContext retrieves the authenticated user from the context
func UserFromContext(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(ContextUser).(*model.User)
	return user, ok
}

// RoleFromContext retrieves the authenticated user's role from the context
func RoleFromContext(c echo.Context) (string, bool) {
	role, ok := c.Get(ContextUserRole).(string)
	return role, ok
}
