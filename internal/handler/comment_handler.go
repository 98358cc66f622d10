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

// CommentHandler implements public comment submission and the admin-side
// moderation queue
type CommentHandler struct {
	db *gorm.DB
}

// NewCommentHandler creates the comment handler
func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

// CommentRequest defines the payload for public comment submission
type CommentRequest struct {
	Author  string `json:"author"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

// Create handles a public visitor leaving a comment on a published post. New
// comments start out pending until a moderator approves them.
func (h *CommentHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("comments", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid post ID")
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid comment request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Author == "" || req.Content == "" {
		return response.Error(c, http.StatusBadRequest, "author and content are required")
	}

	var post model.Post
	result := h.db.Where("id = ? AND tenant_id = ? AND published = ?", postID, tenantID, true).First(&post)
	if result.Error != nil {
		return response.Error(c, http.StatusNotFound, "post not found")
	}

	comment := model.Comment{
		TenantID: tenantID,
		PostID:   post.ID,
		Author:   req.Author,
		Email:    req.Email,
		Content:  req.Content,
		Status:   model.CommentPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&comment); result.Error != nil {
		log.Error("Failed to create comment", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "comment creation failed")
	}

	log.Info("Comment submitted", zap.Uint("comment_id", comment.ID), zap.Uint("post_id", post.ID))
	return response.JSON(c, http.StatusCreated, comment)
}

// List handles the moderation queue, optionally filtered by status
func (h *CommentHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("comments", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Comment{}).Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if postID := c.QueryParam("post_id"); postID != "" {
		query = query.Where("post_id = ?", postID)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count comments", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve comments")
	}

	var comments []model.Comment
	result := query.
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&comments)
	if result.Error != nil {
		log.Error("Failed to list comments", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve comments")
	}

	return response.Page(c, http.StatusOK, comments, response.NewPagination(page, limit, total))
}

// Approve marks a pending comment as approved so it shows up on the public
// post page
func (h *CommentHandler) Approve(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("comments", "approve")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid comment ID")
	}

	var comment model.Comment
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&comment); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "comment not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := h.db.Model(&comment).Update("status", model.CommentApproved)
	if result.Error != nil {
		log.Error("Failed to approve comment", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "comment approval failed")
	}
	comment.Status = model.CommentApproved

	log.Info("Comment approved", zap.Uint("comment_id", comment.ID))
	return response.JSON(c, http.StatusOK, comment)
}

// Delete removes a comment
func (h *CommentHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("comments", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid comment ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.Comment{}, id)
	if result.Error != nil {
		log.Error("Failed to delete comment", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "comment deletion failed")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "comment not found")
	}

	log.Info("Comment deleted", zap.Uint64("comment_id", id))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}
