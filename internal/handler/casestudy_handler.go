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

// CaseStudyHandler implements case study content for law office and agency
// sites
type CaseStudyHandler struct {
	db *gorm.DB
}

// NewCaseStudyHandler creates the case study handler
func NewCaseStudyHandler(db *gorm.DB) *CaseStudyHandler {
	return &CaseStudyHandler{db: db}
}

// CaseStudyRequest defines the payload for case study creation
type CaseStudyRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Client    string `json:"client"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
}

// CaseStudyUpdateRequest defines the partial payload for case study updates
type CaseStudyUpdateRequest struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Client    *string `json:"client"`
	Summary   *string `json:"summary"`
	Content   *string `json:"content"`
	Published *bool   `json:"published"`
}

// List handles retrieving the tenant's case studies
func (h *CaseStudyHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// PublicList lists published case studies for the public site
func (h *CaseStudyHandler) PublicList(c echo.Context) error {
	return h.list(c, true)
}

func (h *CaseStudyHandler) list(c echo.Context, publicOnly bool) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("case_studies", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.CaseStudy{}).Where("tenant_id = ?", tenantID)
	if publicOnly {
		query = query.Where("published = ?", true)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count case studies", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve case studies")
	}

	var studies []model.CaseStudy
	result := query.
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&studies)
	if result.Error != nil {
		log.Error("Failed to list case studies", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve case studies")
	}

	return response.Page(c, http.StatusOK, studies, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single case study by ID
func (h *CaseStudyHandler) Get(c echo.Context) error {
	prometheus.RecordResourceOperation("case_studies", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid case study ID")
	}

	var study model.CaseStudy
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&study); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "case study not found")
	}

	return response.JSON(c, http.StatusOK, study)
}

// PublicGetBySlug retrieves a published case study by slug
func (h *CaseStudyHandler) PublicGetBySlug(c echo.Context) error {
	prometheus.RecordResourceOperation("case_studies", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	slug := c.Param("slug")

	var study model.CaseStudy
	result := h.db.Where("slug = ? AND tenant_id = ? AND published = ?", slug, tenantID, true).First(&study)
	if result.Error != nil {
		return response.Error(c, http.StatusNotFound, "case study not found")
	}

	return response.JSON(c, http.StatusOK, study)
}

// Create handles creating a case study. Slugs follow the same per-tenant
// uniqueness rule as blog posts.
func (h *CaseStudyHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("case_studies", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req CaseStudyRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid case study request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Title == "" || req.Slug == "" {
		return response.Error(c, http.StatusBadRequest, "title and slug are required")
	}

	var count int64
	h.db.Model(&model.CaseStudy{}).Where("slug = ? AND tenant_id = ?", req.Slug, tenantID).Count(&count)
	if count > 0 {
		log.Warn("Case study slug already exists", zap.String("slug", req.Slug))
		return response.Error(c, http.StatusConflict, "a case study with this slug already exists")
	}

	study := model.CaseStudy{
		TenantID:  tenantID,
		Title:     req.Title,
		Slug:      req.Slug,
		Client:    req.Client,
		Summary:   req.Summary,
		Content:   req.Content,
		Published: req.Published,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&study); result.Error != nil {
		log.Error("Failed to create case study", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "case study creation failed")
	}

	log.Info("Case study created", zap.Uint("case_study_id", study.ID), zap.String("slug", study.Slug))
	return response.JSON(c, http.StatusCreated, study)
}

// Update handles partial updates of a case study
func (h *CaseStudyHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("case_studies", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid case study ID")
	}

	var req CaseStudyUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var study model.CaseStudy
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&study); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "case study not found")
	}

	if req.Slug != nil && *req.Slug != study.Slug {
		if *req.Slug == "" {
			return response.Error(c, http.StatusBadRequest, "slug must not be empty")
		}
		var count int64
		h.db.Model(&model.CaseStudy{}).
			Where("slug = ? AND tenant_id = ? AND id != ?", *req.Slug, tenantID, study.ID).
			Count(&count)
		if count > 0 {
			return response.Error(c, http.StatusConflict, "a case study with this slug already exists")
		}
		study.Slug = *req.Slug
	}

	if req.Title != nil {
		if *req.Title == "" {
			return response.Error(c, http.StatusBadRequest, "title must not be empty")
		}
		study.Title = *req.Title
	}
	if req.Client != nil {
		study.Client = *req.Client
	}
	if req.Summary != nil {
		study.Summary = *req.Summary
	}
	if req.Content != nil {
		study.Content = *req.Content
	}
	if req.Published != nil {
		study.Published = *req.Published
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&study); result.Error != nil {
		log.Error("Failed to update case study", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "case study update failed")
	}

	return response.JSON(c, http.StatusOK, study)
}

// Delete removes a case study
func (h *CaseStudyHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("case_studies", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid case study ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.CaseStudy{}, id)
	if result.Error != nil {
		log.Error("Failed to delete case study", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "case study deletion failed")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "case study not found")
	}

	log.Info("Case study deleted", zap.Uint64("case_study_id", id))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}
