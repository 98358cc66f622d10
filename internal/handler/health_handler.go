package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// HealthHandler reports service and database liveness
type HealthHandler struct {
	db          *gorm.DB
	serviceName string
}

// NewHealthHandler creates the health handler
func NewHealthHandler(db *gorm.DB, serviceName string) *HealthHandler {
	return &HealthHandler{db: db, serviceName: serviceName}
}

// Check responds 200 when the service can reach its database
func (h *HealthHandler) Check(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":  "unhealthy",
			"service": h.serviceName,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"service": h.serviceName,
	})
}
