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

// ReservationHandler implements table reservations: public submission plus
// the admin workflow
type ReservationHandler struct {
	db *gorm.DB
}

// NewReservationHandler creates the reservation handler
func NewReservationHandler(db *gorm.DB) *ReservationHandler {
	return &ReservationHandler{db: db}
}

// ReservationRequest is the public submission payload
type ReservationRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	PartySize int    `json:"party_size"`
	Date      string `json:"date"`
	Notes     string `json:"notes"`
}

// Create handles an anonymous reservation submission from the public site
func (h *ReservationHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("reservations", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req ReservationRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid reservation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Name == "" || req.Email == "" {
		return response.Error(c, http.StatusBadRequest, "name and email are required")
	}
	if req.PartySize <= 0 {
		return response.Error(c, http.StatusBadRequest, "party_size must be positive")
	}

	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "date must be RFC3339")
	}

	reservation := model.Reservation{
		TenantID:  tenantID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		PartySize: req.PartySize,
		Date:      date,
		Notes:     req.Notes,
		Status:    model.StatusPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&reservation); result.Error != nil {
		log.Error("Failed to create reservation", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "reservation failed")
	}

	log.Info("Reservation submitted",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("tenant_id", tenantID),
		zap.Int("party_size", reservation.PartySize))

	return response.JSON(c, http.StatusCreated, reservation)
}

// List handles retrieving the tenant's reservations, upcoming first
func (h *ReservationHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("reservations", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Reservation{}).Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count reservations", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve reservations")
	}

	var reservations []model.Reservation
	result := query.
		Order("date asc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&reservations)
	if result.Error != nil {
		log.Error("Failed to list reservations", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve reservations")
	}

	return response.Page(c, http.StatusOK, reservations, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single reservation
func (h *ReservationHandler) Get(c echo.Context) error {
	prometheus.RecordResourceOperation("reservations", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid reservation ID")
	}

	var reservation model.Reservation
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&reservation); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "reservation not found")
	}

	return response.JSON(c, http.StatusOK, reservation)
}

// UpdateStatus moves the reservation through its lifecycle
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	return updateStatusScoped(c, h.db, &model.Reservation{}, "reservations", "reservation")
}

// Delete removes a reservation
func (h *ReservationHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("reservations", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid reservation ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.Reservation{}, id)
	if result.Error != nil {
		log.Error("Failed to delete reservation", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "reservation deletion failed")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "reservation not found")
	}

	log.Info("Reservation deleted", zap.Uint64("reservation_id", id), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}
