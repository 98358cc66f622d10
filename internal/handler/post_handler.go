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

// PostHandler implements blog posts: admin CRUD plus the public published feed
type PostHandler struct {
	db *gorm.DB
}

// NewPostHandler creates the post handler
func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db}
}

// PostRequest defines the payload for post creation
type PostRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Excerpt   string `json:"excerpt"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Published bool   `json:"published"`
}

// PostUpdateRequest defines the partial payload for post updates
type PostUpdateRequest struct {
	Title     *string `json:"title"`
	Slug      *string `json:"slug"`
	Excerpt   *string `json:"excerpt"`
	Content   *string `json:"content"`
	Author    *string `json:"author"`
	Published *bool   `json:"published"`
}

// List handles retrieving the tenant's posts, newest first
func (h *PostHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// PublicList lists published posts for the public site
func (h *PostHandler) PublicList(c echo.Context) error {
	return h.list(c, true)
}

func (h *PostHandler) list(c echo.Context, publicOnly bool) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("posts", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Post{}).Where("tenant_id = ?", tenantID)
	if publicOnly {
		query = query.Where("published = ?", true)
	} else if published := c.QueryParam("published"); published != "" {
		if v, err := strconv.ParseBool(published); err == nil {
			query = query.Where("published = ?", v)
		}
	}
	if q := c.QueryParam("q"); q != "" {
		query = query.Where("title LIKE ?", "%"+q+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count posts", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve posts")
	}

	var posts []model.Post
	result := query.
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&posts)
	if result.Error != nil {
		log.Error("Failed to list posts", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve posts")
	}

	return response.Page(c, http.StatusOK, posts, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single post by ID
func (h *PostHandler) Get(c echo.Context) error {
	prometheus.RecordResourceOperation("posts", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid post ID")
	}

	var post model.Post
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&post); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "post not found")
	}

	return response.JSON(c, http.StatusOK, post)
}

// PublicGetBySlug retrieves a published post by slug with approved comments
func (h *PostHandler) PublicGetBySlug(c echo.Context) error {
	prometheus.RecordResourceOperation("posts", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	slug := c.Param("slug")

	var post model.Post
	result := h.db.Where("slug = ? AND tenant_id = ? AND published = ?", slug, tenantID, true).First(&post)
	if result.Error != nil {
		return response.Error(c, http.StatusNotFound, "post not found")
	}

	var comments []model.Comment
	if err := h.db.Where("post_id = ? AND tenant_id = ? AND status = ?", post.ID, tenantID, model.CommentApproved).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		logger.FromContext(c).Error("Failed to load comments", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to load comments")
	}

	return response.JSON(c, http.StatusOK, echo.Map{
		"post":     post,
		"comments": comments,
	})
}

// Create handles creating a new post. The slug must be unique within the
// tenant; the same slug under another tenant is fine.
func (h *PostHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("posts", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid post request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Title == "" || req.Slug == "" {
		return response.Error(c, http.StatusBadRequest, "title and slug are required")
	}

	var count int64
	h.db.Model(&model.Post{}).Where("slug = ? AND tenant_id = ?", req.Slug, tenantID).Count(&count)
	if count > 0 {
		log.Warn("Post slug already exists", zap.String("slug", req.Slug), zap.Uint("tenant_id", tenantID))
		return response.Error(c, http.StatusConflict, "a post with this slug already exists")
	}

	post := model.Post{
		TenantID:  tenantID,
		Title:     req.Title,
		Slug:      req.Slug,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Author:    req.Author,
		Published: req.Published,
	}
	if req.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&post); result.Error != nil {
		log.Error("Failed to create post", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "post creation failed")
	}

	log.Info("Post created", zap.Uint("post_id", post.ID), zap.String("slug", post.Slug))
	return response.JSON(c, http.StatusCreated, post)
}

// Update handles partial updates of an existing post. A slug change re-checks
// uniqueness excluding the post itself.
func (h *PostHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("posts", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid post ID")
	}

	var req PostUpdateRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var post model.Post
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&post); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "post not found")
	}

	if req.Slug != nil && *req.Slug != post.Slug {
		if *req.Slug == "" {
			return response.Error(c, http.StatusBadRequest, "slug must not be empty")
		}
		var count int64
		h.db.Model(&model.Post{}).
			Where("slug = ? AND tenant_id = ? AND id != ?", *req.Slug, tenantID, post.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Post slug already exists", zap.String("slug", *req.Slug))
			return response.Error(c, http.StatusConflict, "a post with this slug already exists")
		}
		post.Slug = *req.Slug
	}

	if req.Title != nil {
		if *req.Title == "" {
			return response.Error(c, http.StatusBadRequest, "title must not be empty")
		}
		post.Title = *req.Title
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Author != nil {
		post.Author = *req.Author
	}
	if req.Published != nil {
		if *req.Published && !post.Published {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Published = *req.Published
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&post); result.Error != nil {
		log.Error("Failed to update post", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "post update failed")
	}

	return response.JSON(c, http.StatusOK, post)
}

// Delete removes a post and cascades to its comments so no orphaned rows
// survive
func (h *PostHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("posts", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid post ID")
	}

	var post model.Post
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&post); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "post not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ? AND tenant_id = ?", post.ID, tenantID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		log.Error("Failed to delete post", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "post deletion failed")
	}

	log.Info("Post deleted", zap.Uint("post_id", post.ID), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": post.ID})
}
