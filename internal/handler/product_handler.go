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

// ProductHandler implements product CRUD for the store and restaurant
// verticals. Every query and mutation is filtered by the resolved tenant.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler creates the product handler
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ProductRequest defines the payload for product creation
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Inventory   int     `json:"inventory"`
	Active      *bool   `json:"active"`
}

// ProductUpdateRequest defines the partial payload for product updates
type ProductUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Inventory   *int     `json:"inventory"`
	Active      *bool    `json:"active"`
}

// List handles retrieving the tenant's products with optional filtering
func (h *ProductHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// PublicList lists active products for the public site (menu, store page)
func (h *ProductHandler) PublicList(c echo.Context) error {
	return h.list(c, true)
}

func (h *ProductHandler) list(c echo.Context, publicOnly bool) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("products", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Product{}).Where("tenant_id = ?", tenantID)

	if category := c.QueryParam("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if q := c.QueryParam("q"); q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}

	if publicOnly {
		query = query.Where("active = ?", true)
	} else if isActive := c.QueryParam("active"); isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("active = ?", active)
		} else {
			log.Warn("Invalid active parameter", zap.String("value", isActive))
		}
	}

	if minPrice := c.QueryParam("min_price"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
	}
	if maxPrice := c.QueryParam("max_price"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", v)
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count products", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve products")
	}

	// Deterministic ordering keeps repeated calls stable
	var products []model.Product
	result := query.
		Order("position asc").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve products")
	}

	log.Info("Products retrieved", zap.Int("count", len(products)), zap.Uint("tenant_id", tenantID))
	return response.Page(c, http.StatusOK, products, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single product by ID. A product under a different
// tenant is reported as not found, never as forbidden.
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("products", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid product ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var product model.Product
	result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&product)
	if result.Error != nil {
		log.Warn("Product not found", zap.Uint64("product_id", id), zap.Uint("tenant_id", tenantID))
		return response.Error(c, http.StatusNotFound, "product not found")
	}

	return response.JSON(c, http.StatusOK, product)
}

// Create handles creating a new product. The display position is assigned
// from the tenant's category sequence.
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("products", "create")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid product request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	if req.Name == "" {
		return response.Error(c, http.StatusBadRequest, "name is required")
	}
	if req.Price < 0 {
		return response.Error(c, http.StatusBadRequest, "price must not be negative")
	}
	if req.Inventory < 0 {
		return response.Error(c, http.StatusBadRequest, "inventory must not be negative")
	}

	position, err := sequence.Next(h.db, tenantID, sequence.ProductScope(req.Category))
	if err != nil {
		log.Error("Failed to assign product position", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "product creation failed")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	product := model.Product{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Inventory:   req.Inventory,
		Position:    position,
		Active:      active,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := h.db.Create(&product); result.Error != nil {
		log.Error("Failed to create product", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "product creation failed")
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.Uint("tenant_id", tenantID),
		zap.String("name", product.Name),
		zap.Int("position", product.Position))

	return response.JSON(c, http.StatusCreated, product)
}

// Update handles partial updates of an existing product
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("products", "update")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid product ID")
	}

	var req ProductUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid product update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}

	var product model.Product
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&product); result.Error != nil {
		log.Warn("Product not found for update", zap.Uint64("product_id", id))
		return response.Error(c, http.StatusNotFound, "product not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return response.Error(c, http.StatusBadRequest, "name must not be empty")
		}
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return response.Error(c, http.StatusBadRequest, "price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Inventory != nil {
		if *req.Inventory < 0 {
			return response.Error(c, http.StatusBadRequest, "inventory must not be negative")
		}
		product.Inventory = *req.Inventory
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := h.db.Save(&product); result.Error != nil {
		log.Error("Failed to update product", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "product update failed")
	}

	log.Info("Product updated", zap.Uint("product_id", product.ID), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, product)
}

// Delete handles hard-deleting a product
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("products", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid product ID")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("tenant_id = ?", tenantID).Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "product deletion failed")
	}

	if result.RowsAffected == 0 {
		log.Warn("Product not found for deletion", zap.Uint64("product_id", id))
		return response.Error(c, http.StatusNotFound, "product not found")
	}

	log.Info("Product deleted", zap.Uint64("product_id", id), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": id})
}

// ReorderRequest is one {id, position} pair of a reorder batch
type ReorderRequest struct {
	ID       uint `json:"id"`
	Position int  `json:"position"`
}

// Reorder applies a batch of position updates atomically. An unknown or
// cross-tenant ID rolls back the whole batch.
func (h *ProductHandler) Reorder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("products", "reorder")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	var items []ReorderRequest
	if err := c.Bind(&items); err != nil {
		log.Warn("Invalid reorder request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}
	if len(items) == 0 {
		return response.Error(c, http.StatusBadRequest, "at least one item is required")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err := reorderInTx(h.db, &model.Product{}, tenantID, items)
	if err == errReorderNotFound {
		return response.Error(c, http.StatusNotFound, "product not found")
	}
	if err != nil {
		log.Error("Failed to reorder products", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "reorder failed")
	}

	log.Info("Products reordered", zap.Int("count", len(items)), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"reordered": len(items)})
}
