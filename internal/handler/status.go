package handler

import (
	"fmt"
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

// updateStatusScoped moves a lifecycled record (order, booking, reservation)
// through the shared status graph. entity must be a fresh pointer implementing
// model.Lifecycled; illegal transitions are rejected with a conflict.
func updateStatusScoped(c echo.Context, db *gorm.DB, entity model.Lifecycled, resource, noun string) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation(resource, "status")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, fmt.Sprintf("invalid %s ID", noun))
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}
	if !model.ValidStatus(req.Status) {
		return response.Error(c, http.StatusBadRequest, "invalid status")
	}

	if result := db.Where("id = ? AND tenant_id = ?", id, tenantID).First(entity); result.Error != nil {
		log.Warn("Record not found for status update",
			zap.String("resource", resource),
			zap.Uint64("id", id),
			zap.Uint("tenant_id", tenantID))
		return response.Error(c, http.StatusNotFound, fmt.Sprintf("%s not found", noun))
	}

	current := entity.CurrentStatus()
	if !model.CanTransition(current, req.Status) {
		log.Warn("Illegal status transition",
			zap.String("resource", resource),
			zap.String("from", current),
			zap.String("to", req.Status))
		return response.Error(c, http.StatusConflict,
			fmt.Sprintf("cannot transition from %s to %s", current, req.Status))
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := db.Model(entity).
		Where("tenant_id = ? AND status = ?", tenantID, current).
		Update("status", req.Status)
	if result.Error != nil {
		log.Error("Failed to update status", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "status update failed")
	}
	if result.RowsAffected == 0 {
		// The record moved on between our read and this write.
		log.Warn("Status changed concurrently",
			zap.String("resource", resource),
			zap.Uint64("id", id),
			zap.String("expected", current))
		return response.Error(c, http.StatusConflict,
			fmt.Sprintf("%s status changed, retry", noun))
	}

	log.Info("Status updated",
		zap.String("resource", resource),
		zap.Uint64("id", id),
		zap.String("from", current),
		zap.String("to", req.Status))

	return response.JSON(c, http.StatusOK, echo.Map{"id": id, "status": req.Status})
}
