package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sitebuilder-service/internal/model"
)

func signupBody(email, subdomain string) string {
	return `{"email":"` + email + `","password":"hunter2hunter2","name":"Owner","site_name":"Acme Pizza","subdomain":"` + subdomain + `","vertical":"restaurant"}`
}

func TestSignupProvisionsTenant(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	rec, env := request{
		method: http.MethodPost,
		target: "/api/auth/signup",
		body:   signupBody("owner@acme.test", "acme"),
	}.do(t, h.Signup)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var data struct {
		Token  string       `json:"token"`
		User   model.User   `json:"user"`
		Tenant model.Tenant `json:"tenant"`
	}
	decodeData(t, env, &data)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, model.RoleAdmin, data.User.Role)
	assert.Equal(t, "acme", data.Tenant.Subdomain)

	// Template and settings are provisioned alongside the tenant
	var template model.Template
	require.NoError(t, db.Where("tenant_id = ?", data.Tenant.ID).First(&template).Error)
	assert.Equal(t, model.VerticalRestaurant, template.Vertical)

	var settings model.Settings
	require.NoError(t, db.Where("tenant_id = ?", data.Tenant.ID).First(&settings).Error)
	assert.Equal(t, "Acme Pizza", settings.SiteTitle)
	assert.Equal(t, "owner@acme.test", settings.ContactEmail)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	rec, _ := request{method: http.MethodPost, target: "/api/auth/signup",
		body: signupBody("owner@acme.test", "acme")}.do(t, h.Signup)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := request{method: http.MethodPost, target: "/api/auth/signup",
		body: signupBody("owner@acme.test", "other")}.do(t, h.Signup)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "email already registered", env.Error)
}

func TestSignupRejectsDuplicateSubdomain(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	rec, _ := request{method: http.MethodPost, target: "/api/auth/signup",
		body: signupBody("owner@acme.test", "acme")}.do(t, h.Signup)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := request{method: http.MethodPost, target: "/api/auth/signup",
		body: signupBody("other@acme.test", "acme")}.do(t, h.Signup)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "subdomain already taken", env.Error)
}

func TestSignupRejectsInvalidSubdomain(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	for _, subdomain := range []string{"Has Spaces", "UPPER", "-leading", "trailing-", "dots.here"} {
		rec, _ := request{method: http.MethodPost, target: "/api/auth/signup",
			body: signupBody("owner@acme.test", subdomain)}.do(t, h.Signup)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "subdomain %q", subdomain)
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	rec, _ := request{
		method: http.MethodPost,
		target: "/api/auth/signup",
		body:   `{"email":"owner@acme.test","password":"short","site_name":"Acme","subdomain":"acme"}`,
	}.do(t, h.Signup)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupRejectsUnknownVertical(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	rec, _ := request{
		method: http.MethodPost,
		target: "/api/auth/signup",
		body:   `{"email":"owner@acme.test","password":"hunter2hunter2","site_name":"Acme","subdomain":"acme","vertical":"spaceport"}`,
	}.do(t, h.Signup)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func signupTestUser(t *testing.T, db *gorm.DB, h *AuthHandler) {
	t.Helper()
	rec, _ := request{method: http.MethodPost, target: "/api/auth/signup",
		body: signupBody("owner@acme.test", "acme")}.do(t, h.Signup)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginSucceeds(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())
	signupTestUser(t, db, h)

	rec, env := request{
		method: http.MethodPost,
		target: "/api/auth/login",
		body:   `{"email":"owner@acme.test","password":"hunter2hunter2"}`,
	}.do(t, h.Login)

	assert.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decodeData(t, env, &data)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, model.RoleAdmin, data.User.Role)
}

func TestLoginNormalizesEmail(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())
	signupTestUser(t, db, h)

	rec, _ := request{
		method: http.MethodPost,
		target: "/api/auth/login",
		body:   `{"email":"  OWNER@acme.test ","password":"hunter2hunter2"}`,
	}.do(t, h.Login)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())
	signupTestUser(t, db, h)

	rec, env := request{
		method: http.MethodPost,
		target: "/api/auth/login",
		body:   `{"email":"owner@acme.test","password":"wrong-password"}`,
	}.do(t, h.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", env.Error)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	db := newTestDB(t)
	h := NewAuthHandler(db, newTestJWT())

	rec, env := request{
		method: http.MethodPost,
		target: "/api/auth/login",
		body:   `{"email":"ghost@acme.test","password":"hunter2hunter2"}`,
	}.do(t, h.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", env.Error)
}
