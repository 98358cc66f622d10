package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sitebuilder-service/internal/middleware"
	"sitebuilder-service/internal/model"
	"sitebuilder-service/internal/response"
	"sitebuilder-service/pkg/jwtutil"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// AuthHandler implements signup and login
type AuthHandler struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(db *gorm.DB, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

// Signup creates a tenant with its default template and settings, plus the
// first user, who is granted the admin role. Everything commits in one
// transaction so a failed step never leaves a half-provisioned tenant.
func (h *AuthHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("auth", "signup")

	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Name      string `json:"name"`
		SiteName  string `json:"site_name"`
		Subdomain string `json:"subdomain"`
		Vertical  string `json:"vertical"`
	}

	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse signup request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))

	if req.Email == "" || req.Password == "" || req.SiteName == "" || req.Subdomain == "" {
		prometheus.RecordAuthError("incomplete_signup")
		return response.Error(c, http.StatusBadRequest, "email, password, site_name and subdomain are required")
	}
	if len(req.Password) < 8 {
		prometheus.RecordAuthError("weak_password")
		return response.Error(c, http.StatusBadRequest, "password must be at least 8 characters")
	}
	if !subdomainPattern.MatchString(req.Subdomain) {
		prometheus.RecordAuthError("invalid_subdomain")
		return response.Error(c, http.StatusBadRequest, "subdomain may contain lowercase letters, digits and hyphens only")
	}
	if req.Vertical == "" {
		req.Vertical = model.VerticalStore
	} else if !knownVerticals[req.Vertical] {
		prometheus.RecordAuthError("invalid_vertical")
		return response.Error(c, http.StatusBadRequest, "unknown vertical")
	}

	// Check uniqueness up front for friendly errors; the unique indexes remain
	// the real guarantee under concurrency.
	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	h.db.Model(&model.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Email already registered", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return response.Error(c, http.StatusConflict, "email already registered")
	}

	h.db.Model(&model.Tenant{}).Where("subdomain = ?", req.Subdomain).Count(&count)
	if count > 0 {
		log.Warn("Subdomain already taken", zap.String("subdomain", req.Subdomain))
		prometheus.RecordAuthError("subdomain_already_exists")
		return response.Error(c, http.StatusConflict, "subdomain already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return response.Error(c, http.StatusInternalServerError, "signup failed")
	}

	tenant := model.Tenant{
		Name:      req.SiteName,
		Subdomain: req.Subdomain,
		Plan:      model.PlanFree,
		Active:    true,
	}
	var user model.User

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		template := model.Template{
			TenantID: tenant.ID,
			Name:     "default",
			Vertical: req.Vertical,
			Active:   true,
		}
		if err := tx.Create(&template).Error; err != nil {
			return err
		}

		settings := model.Settings{
			TenantID:     tenant.ID,
			SiteTitle:    req.SiteName,
			ContactEmail: req.Email,
		}
		if err := tx.Create(&settings).Error; err != nil {
			return err
		}

		// First user of a tenant gets the highest-privilege role
		user = model.User{
			Email:      req.Email,
			Password:   string(hashedPassword),
			Name:       req.Name,
			Role:       model.RoleAdmin,
			TenantID:   tenant.ID,
			TemplateID: &template.ID,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		log.Error("Signup transaction failed", zap.Error(err))
		prometheus.RecordAuthError("signup_failed")
		return response.Error(c, http.StatusInternalServerError, "signup failed")
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, tenant.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return response.Error(c, http.StatusInternalServerError, "token error")
	}

	log.Info("Tenant signed up",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("email", user.Email))

	return response.JSON(c, http.StatusCreated, echo.Map{
		"token":  token,
		"user":   user,
		"tenant": tenant,
	})
}

// Login verifies credentials and issues a session token carrying the user's
// tenant and role
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("auth", "login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := h.db.Where("email = ?", req.Email).First(&user); result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return response.Error(c, http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return response.Error(c, http.StatusUnauthorized, "invalid credentials")
	}

	var tenant model.Tenant
	if result := h.db.First(&tenant, user.TenantID); result.Error != nil {
		log.Error("User's tenant missing", zap.Uint("tenant_id", user.TenantID))
		prometheus.RecordAuthError("tenant_not_found")
		return response.Error(c, http.StatusUnauthorized, "invalid credentials")
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.TenantID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return response.Error(c, http.StatusInternalServerError, "token error")
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", user.TenantID),
		zap.String("role", user.Role))

	return response.JSON(c, http.StatusOK, echo.Map{
		"token":  token,
		"user":   user,
		"tenant": tenant,
	})
}

// Me returns the authenticated user and their tenant
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, http.StatusUnauthorized, "authentication required")
	}

	var tenant model.Tenant
	if result := h.db.First(&tenant, user.TenantID); result.Error != nil {
		return response.Error(c, http.StatusInternalServerError, "failed to load tenant")
	}

	return response.JSON(c, http.StatusOK, echo.Map{
		"user":   user,
		"tenant": tenant,
	})
}
