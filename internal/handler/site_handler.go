package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sitebuilder-service/internal/middleware"
	"sitebuilder-service/internal/model"
	"sitebuilder-service/internal/response"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// SiteHandler implements the site configuration surface: the template choice
// with its customization payload plus the tenant-wide settings
type SiteHandler struct {
	db *gorm.DB
}

// NewSiteHandler creates the site handler
func NewSiteHandler(db *gorm.DB) *SiteHandler {
	return &SiteHandler{db: db}
}

// SettingsRequest defines the partial payload for settings updates
type SettingsRequest struct {
	SiteTitle    *string `json:"site_title"`
	LogoURL      *string `json:"logo_url"`
	PrimaryColor *string `json:"primary_color"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Address      *string `json:"address"`
	Social       *string `json:"social"`
}

// TemplateRequest defines the payload for switching or customizing the
// active template
type TemplateRequest struct {
	Name          *string `json:"name"`
	Vertical      *string `json:"vertical"`
	Customization *string `json:"customization"`
}

var knownVerticals = map[string]bool{
	model.VerticalRestaurant: true,
	model.VerticalGym:        true,
	model.VerticalLawOffice:  true,
	model.VerticalStore:      true,
	model.VerticalAgency:     true,
}

// PublicConfig returns everything the page renderer needs to draw the
// tenant's site in a single call
func (h *SiteHandler) PublicConfig(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("site", "get")

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var template model.Template
	if result := h.db.Where("tenant_id = ? AND active = ?", tenant.ID, true).First(&template); result.Error != nil {
		log.Error("Site template missing", zap.Uint("tenant_id", tenant.ID), zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "site configuration unavailable")
	}

	var settings model.Settings
	if result := h.db.Where("tenant_id = ?", tenant.ID).First(&settings); result.Error != nil {
		log.Error("Site settings missing", zap.Uint("tenant_id", tenant.ID), zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "site configuration unavailable")
	}

	return response.JSON(c, http.StatusOK, echo.Map{
		"tenant": echo.Map{
			"name":      tenant.Name,
			"subdomain": tenant.Subdomain,
			"plan":      tenant.Plan,
		},
		"template": template,
		"settings": settings,
	})
}

// GetSettings returns the tenant's settings row
func (h *SiteHandler) GetSettings(c echo.Context) error {
	prometheus.RecordResourceOperation("site", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var settings model.Settings
	if result := h.db.Where("tenant_id = ?", tenantID).First(&settings); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "settings not found")
	}

	return response.JSON(c, http.StatusOK, settings)
}

// UpdateSettings applies a partial update to the tenant's settings
func (h *SiteHandler) UpdateSettings(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("site", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid settings request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var settings model.Settings
	if result := h.db.Where("tenant_id = ?", tenantID).First(&settings); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "settings not found")
	}

	if req.SiteTitle != nil {
		settings.SiteTitle = *req.SiteTitle
	}
	if req.LogoURL != nil {
		settings.LogoURL = *req.LogoURL
	}
	if req.PrimaryColor != nil {
		settings.PrimaryColor = *req.PrimaryColor
	}
	if req.ContactEmail != nil {
		settings.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		settings.ContactPhone = *req.ContactPhone
	}
	if req.Address != nil {
		settings.Address = *req.Address
	}
	if req.Social != nil {
		if !json.Valid([]byte(*req.Social)) {
			return response.Error(c, http.StatusBadRequest, "social must be valid JSON")
		}
		settings.Social = *req.Social
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&settings); result.Error != nil {
		log.Error("Failed to update settings", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "settings update failed")
	}

	log.Info("Settings updated", zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, settings)
}

// GetTemplate returns the tenant's active template
func (h *SiteHandler) GetTemplate(c echo.Context) error {
	prometheus.RecordResourceOperation("site", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var template model.Template
	if result := h.db.Where("tenant_id = ? AND active = ?", tenantID, true).First(&template); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "template not found")
	}

	return response.JSON(c, http.StatusOK, template)
}

// UpdateTemplate switches the template or replaces its customization payload.
// The payload is stored opaquely; only JSON validity is enforced here.
func (h *SiteHandler) UpdateTemplate(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("site", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req TemplateRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid template request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var template model.Template
	if result := h.db.Where("tenant_id = ? AND active = ?", tenantID, true).First(&template); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "template not found")
	}

	if req.Vertical != nil {
		if !knownVerticals[*req.Vertical] {
			return response.Error(c, http.StatusBadRequest, "unknown vertical")
		}
		template.Vertical = *req.Vertical
	}
	if req.Name != nil {
		if *req.Name == "" {
			return response.Error(c, http.StatusBadRequest, "name must not be empty")
		}
		template.Name = *req.Name
	}
	if req.Customization != nil {
		if !json.Valid([]byte(*req.Customization)) {
			return response.Error(c, http.StatusBadRequest, "customization must be valid JSON")
		}
		template.Customization = *req.Customization
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&template); result.Error != nil {
		log.Error("Failed to update template", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "template update failed")
	}

	log.Info("Template updated", zap.Uint("tenant_id", tenantID), zap.String("vertical", template.Vertical))
	return response.JSON(c, http.StatusOK, template)
}
