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
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// BookingHandler implements service bookings: public submission plus the
// admin workflow
type BookingHandler struct {
	db *gorm.DB
}

// NewBookingHandler creates the booking handler
func NewBookingHandler(db *gorm.DB) *BookingHandler {
	return &BookingHandler{db: db}
}

// BookingRequest is the public submission payload
type BookingRequest struct {
	ServiceID uint   `json:"service_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

// Create handles an anonymous booking submission from the public site. The
// referenced service must belong to the resolved tenant and be active.
func (h *BookingHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("bookings", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid booking request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.ServiceID == 0 || req.Name == "" || req.Email == "" {
		return response.Error(c, http.StatusBadRequest, "service_id, name and email are required")
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "date must be RFC3339")
	}

	var service model.Service
	if result := h.db.Where("id = ? AND tenant_id = ? AND active = ?", req.ServiceID, tenantID, true).First(&service); result.Error != nil {
		log.Warn("Service not found for booking", zap.Uint("service_id", req.ServiceID))
		return response.Error(c, http.StatusNotFound, "service not found")
	}

	booking := model.Booking{
		TenantID:  tenantID,
		ServiceID: service.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Date:      date,
		Notes:     req.Notes,
		Status:    model.StatusPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&booking); result.Error != nil {
		log.Error("Failed to create booking", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "booking failed")
	}

	log.Info("Booking submitted",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("service_id", service.ID),
		zap.Uint("tenant_id", tenantID))

	return response.JSON(c, http.StatusCreated, booking)
}

// List handles retrieving the tenant's bookings, upcoming first
func (h *BookingHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("bookings", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Booking{}).Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if serviceID := c.QueryParam("service_id"); serviceID != "" {
		query = query.Where("service_id = ?", serviceID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count bookings", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve bookings")
	}

	var bookings []model.Booking
	result := query.Preload("Service").
		Order("date asc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&bookings)
	if result.Error != nil {
		log.Error("Failed to list bookings", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve bookings")
	}

	return response.Page(c, http.StatusOK, bookings, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single booking
func (h *BookingHandler) Get(c echo.Context) error {
	prometheus.RecordResourceOperation("bookings", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid booking ID")
	}

	var booking model.Booking
	if result := h.db.Preload("Service").Where("id = ? AND tenant_id = ?", id, tenantID).First(&booking); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "booking not found")
	}

	return response.JSON(c, http.StatusOK, booking)
}

// UpdateStatus moves the booking through its lifecycle
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	return updateStatusScoped(c, h.db, &model.Booking{}, "bookings", "booking")
}

// Delete removes a booking
func (h *BookingHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("bookings", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid booking ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.Booking{}, id)
	if result.Error != nil {
		log.Error("Failed to delete booking", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "booking deletion failed")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "booking not found")
	}

	log.Info("Booking deleted", zap.Uint64("booking_id", id), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}
