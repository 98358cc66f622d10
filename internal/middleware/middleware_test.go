package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sitebuilder-service/internal/model"
	"sitebuilder-service/pkg/config"
	"sitebuilder-service/pkg/jwtutil"
	"sitebuilder-service/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "test"},
	})
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func newJWT() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func seedTenantAndUser(t *testing.T, db *gorm.DB, role string) (*model.Tenant, *model.User) {
	t.Helper()

	tenant := &model.Tenant{Name: "Acme", Subdomain: "acme", Plan: model.PlanFree, Active: true}
	require.NoError(t, db.Create(tenant).Error)

	user := &model.User{
		Email:    "owner@acme.test",
		Password: "hashed",
		Name:     "Owner",
		Role:     role,
		TenantID: tenant.ID,
	}
	require.NoError(t, db.Create(user).Error)
	return tenant, user
}

func TestAuthMissingToken(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuth(db, newJWT())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := auth.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuth(db, newJWT())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Token abc123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := auth.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuth(db, newJWT())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := auth.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongSigningKey(t *testing.T) {
	db := newTestDB(t)
	_, user := seedTenantAndUser(t, db, model.RoleAdmin)

	forged := jwtutil.NewJWTUtil(&config.JWTConfig{
		SigningKey:      "some-other-key",
		ExpirationHours: 1,
	})
	token, err := forged.GenerateToken(user.Email, user.ID, user.TenantID, user.Role)
	require.NoError(t, err)

	auth := NewAuth(db, newJWT())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = auth.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthUnknownUser(t *testing.T) {
	db := newTestDB(t)
	jwt := newJWT()
	token, err := jwt.GenerateToken("ghost@acme.test", 999, 1, model.RoleAdmin)
	require.NoError(t, err)

	auth := NewAuth(db, jwt)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = auth.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAttachesContext(t *testing.T) {
	db := newTestDB(t)
	tenant, user := seedTenantAndUser(t, db, model.RoleEditor)

	jwt := newJWT()
	token, err := jwt.GenerateToken(user.Email, user.ID, user.TenantID, user.Role)
	require.NoError(t, err)

	auth := NewAuth(db, jwt)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = auth.Middleware(func(c echo.Context) error {
		tenantID, ok := TenantIDFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, tenant.ID, tenantID)

		got, ok := UserFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, user.ID, got.ID)

		role, ok := RoleFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, model.RoleEditor, role)

		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantResolverFromSubdomain(t *testing.T) {
	db := newTestDB(t)
	tenant, _ := seedTenantAndUser(t, db, model.RoleAdmin)
	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "acme.sites.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(func(c echo.Context) error {
		tenantID, ok := TenantIDFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, tenant.ID, tenantID)
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantResolverStripsPort(t *testing.T) {
	db := newTestDB(t)
	_, _ = seedTenantAndUser(t, db, model.RoleAdmin)
	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "acme.sites.example.com:8080"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantResolverSubdomainWinsOverHeader(t *testing.T) {
	db := newTestDB(t)

	first := &model.Tenant{Name: "Acme", Subdomain: "acme", Active: true}
	require.NoError(t, db.Create(first).Error)
	second := &model.Tenant{Name: "Globex", Subdomain: "globex", Active: true}
	require.NoError(t, db.Create(second).Error)

	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "acme.sites.example.com"
	req.Header.Set("X-Tenant-ID", "2")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(func(c echo.Context) error {
		tenantID, _ := TenantIDFromContext(c)
		assert.Equal(t, first.ID, tenantID)
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantResolverFallsBackToHeader(t *testing.T) {
	db := newTestDB(t)
	tenant, _ := seedTenantAndUser(t, db, model.RoleAdmin)
	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "sites.example.com"
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(func(c echo.Context) error {
		tenantID, ok := TenantIDFromContext(c)
		assert.True(t, ok)
		assert.Equal(t, tenant.ID, tenantID)
		return c.String(http.StatusOK, "ok")
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantResolverUnknownSubdomain(t *testing.T) {
	db := newTestDB(t)
	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "nosuch.sites.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantResolverBareBaseDomain(t *testing.T) {
	db := newTestDB(t)
	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "sites.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantResolverSuspendedTenant(t *testing.T) {
	db := newTestDB(t)
	tenant := &model.Tenant{Name: "Acme", Subdomain: "acme", Active: false}
	require.NoError(t, db.Create(tenant).Error)

	resolver := NewTenantResolver(db, "sites.example.com")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/public/site", nil)
	req.Host = "acme.sites.example.com"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := resolver.Middleware(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireRoleAllows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextUserRole, model.RoleEditor)

	err := RequireRole(model.RoleAdmin, model.RoleEditor)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleForbids(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/products/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextUserRole, model.RoleViewer)

	err := RequireRole(model.RoleAdmin)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/products/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(model.RoleAdmin)(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireTenantPassesWithContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextTenantID, uint(1))

	err := RequireTenant(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTenantWithoutContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireTenant(okHandler)(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
