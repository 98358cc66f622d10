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

// TeamHandler implements the team member roster shown on the tenant's site
type TeamHandler struct {
	db *gorm.DB
}

// NewTeamHandler creates the team handler
func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{db: db}
}

// TeamMemberRequest defines the payload for team member creation
type TeamMemberRequest struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Bio      string `json:"bio"`
	PhotoURL string `json:"photo_url"`
}

// TeamMemberUpdateRequest defines the partial payload for team member updates
type TeamMemberUpdateRequest struct {
	Name     *string `json:"name"`
	Title    *string `json:"title"`
	Bio      *string `json:"bio"`
	PhotoURL *string `json:"photo_url"`
}

// List handles retrieving team members in display order
func (h *TeamHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("team", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.TeamMember{}).Where("tenant_id = ?", tenantID)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count team members", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve team members")
	}

	var members []model.TeamMember
	result := query.
		Order("position asc").
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&members)
	if result.Error != nil {
		log.Error("Failed to list team members", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve team members")
	}

	return response.Page(c, http.StatusOK, members, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single team member
func (h *TeamHandler) Get(c echo.Context) error {
	prometheus.RecordResourceOperation("team", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid team member ID")
	}

	var member model.TeamMember
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&member); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "team member not found")
	}

	return response.JSON(c, http.StatusOK, member)
}

// Create handles adding a team member at the end of the display order
func (h *TeamHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("team", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req TeamMemberRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid team member request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "name is required")
	}

	position, err := sequence.Next(h.db, tenantID, sequence.ScopeTeam)
	if err != nil {
		log.Error("Failed to allocate team position", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "team member creation failed")
	}

	member := model.TeamMember{
		TenantID: tenantID,
		Name:     req.Name,
		Title:    req.Title,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
		Position: position,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&member); result.Error != nil {
		log.Error("Failed to create team member", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "team member creation failed")
	}

	log.Info("Team member created", zap.Uint("member_id", member.ID), zap.String("name", member.Name))
	return response.JSON(c, http.StatusCreated, member)
}

// Update handles partial updates of a team member
func (h *TeamHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("team", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid team member ID")
	}

	var req TeamMemberUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var member model.TeamMember
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&member); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "team member not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return response.Error(c, http.StatusBadRequest, "name must not be empty")
		}
		member.Name = *req.Name
	}
	if req.Title != nil {
		member.Title = *req.Title
	}
	if req.Bio != nil {
		member.Bio = *req.Bio
	}
	if req.PhotoURL != nil {
		member.PhotoURL = *req.PhotoURL
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&member); result.Error != nil {
		log.Error("Failed to update team member", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "team member update failed")
	}

	return response.JSON(c, http.StatusOK, member)
}

// Delete removes a team member
func (h *TeamHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("team", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid team member ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.TeamMember{}, id)
	if result.Error != nil {
		log.Error("Failed to delete team member", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "team member deletion failed")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "team member not found")
	}

	log.Info("Team member deleted", zap.Uint64("member_id", id))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}

// Reorder applies a new display order to the tenant's team members
func (h *TeamHandler) Reorder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("team", "reorder")

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
		return response.Error(c, http.StatusBadRequest, "no items to reorder")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := reorderInTx(h.db, &model.TeamMember{}, tenantID, items); err != nil {
		if err == errReorderNotFound {
			return response.Error(c, http.StatusNotFound, "team member not found")
		}
		log.Error("Failed to reorder team members", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "reorder failed")
	}

	return response.JSON(c, http.StatusOK, echo.Map{"reordered": len(items)})
}
