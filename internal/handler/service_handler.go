package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sitebuilder-service/internal/middleware"
	"sitebuilder-service/internal/model"
	"sitebuilder-service/internal/response"
	"sitebuilder-service/internal/sequence"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// ServiceHandler implements CRUD for bookable services
type ServiceHandler struct {
	db *gorm.DB
}

// NewServiceHandler creates the service handler
func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// ServiceRequest defines the payload for service creation
type ServiceRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Active          *bool   `json:"active"`
}

// ServiceUpdateRequest defines the partial payload for service updates
type ServiceUpdateRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price"`
	DurationMinutes *int     `json:"duration_minutes"`
	Active          *bool    `json:"active"`
}

// List handles retrieving the tenant's services in display order
func (h *ServiceHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// PublicList lists active services for the public site
func (h *ServiceHandler) PublicList(c echo.Context) error {
	return h.list(c, true)
}

func (h *ServiceHandler) list(c echo.Context, publicOnly bool) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("services", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Service{}).Where("tenant_id = ?", tenantID)
	if publicOnly {
		query = query.Where("active = ?", true)
	} else if isActive := c.QueryParam("active"); isActive != "" {
		if active, err := strconv.ParseBool(isActive); err == nil {
			query = query.Where("active = ?", active)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count services", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve services")
	}

	var services []model.Service
	result := query.
		Order("position asc").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&services)
	if result.Error != nil {
		log.Error("Failed to list services", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve services")
	}

	return response.Page(c, http.StatusOK, services, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single service
func (h *ServiceHandler) Get(c echo.Context) error {
	prometheus.RecordResourceOperation("services", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid service ID")
	}

	var service model.Service
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&service); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "service not found")
	}

	return response.JSON(c, http.StatusOK, service)
}

// Create handles creating a new service at the end of the display order
func (h *ServiceHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("services", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req ServiceRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid service request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "name is required")
	}
	if req.Price < 0 {
		return response.Error(c, http.StatusBadRequest, "price must not be negative")
	}

	position, err := sequence.Next(h.db, tenantID, sequence.ScopeServices)
	if err != nil {
		log.Error("Failed to assign service position", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "service creation failed")
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	service := model.Service{
		TenantID:        tenantID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: duration,
		Position:        position,
		Active:          active,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&service); result.Error != nil {
		log.Error("Failed to create service", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "service creation failed")
	}

	log.Info("Service created",
		zap.Uint("service_id", service.ID),
		zap.Uint("tenant_id", tenantID),
		zap.String("name", service.Name))

	return response.JSON(c, http.StatusCreated, service)
}

// Update handles partial updates of an existing service
func (h *ServiceHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("services", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid service ID")
	}

	var req ServiceUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var service model.Service
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&service); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "service not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return response.Error(c, http.StatusBadRequest, "name must not be empty")
		}
		service.Name = *req.Name
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return response.Error(c, http.StatusBadRequest, "price must not be negative")
		}
		service.Price = *req.Price
	}
	if req.DurationMinutes != nil && *req.DurationMinutes > 0 {
		service.DurationMinutes = *req.DurationMinutes
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&service); result.Error != nil {
		log.Error("Failed to update service", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "service update failed")
	}

	return response.JSON(c, http.StatusOK, service)
}

// Delete handles hard-deleting a service
func (h *ServiceHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("services", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid service ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.Service{}, id)
	if result.Error != nil {
		log.Error("Failed to delete service", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "service deletion failed")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "service not found")
	}

	log.Info("Service deleted", zap.Uint64("service_id", id), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}

// Reorder applies a batch of position updates atomically
func (h *ServiceHandler) Reorder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("services", "reorder")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var items []ReorderRequest
	if err := c.Bind(&items); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}
	if len(items) == 0 {
		return response.Error(c, http.StatusBadRequest, "at least one item is required")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := reorderInTx(h.db, &model.Service{}, tenantID, items)
	if err == errReorderNotFound {
		return response.Error(c, http.StatusNotFound, "service not found")
	}
	if err != nil {
		log.Error("Failed to reorder services", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "reorder failed")
	}

	return response.JSON(c, http.StatusOK, echo.Map{"reordered": len(items)})
}
