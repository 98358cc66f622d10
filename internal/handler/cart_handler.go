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

// CartHandler implements the anonymous shopping cart. Carts are scoped by
// tenant and the shopper's X-Session-ID, not by user.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler creates the cart handler
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

func sessionID(c echo.Context) (string, bool) {
	id := c.Request().Header.Get("X-Session-ID")
	if id == "" || len(id) > 64 {
		return "", false
	}
	return id, true
}

// Get returns the session's cart with its items and product details.
// A session without a cart gets an empty one without creating a row.
func (h *CartHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("cart", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	session, ok := sessionID(c)
	if !ok {
		return response.Error(c, http.StatusBadRequest, "X-Session-ID header is required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var cart model.Cart
	result := h.db.Preload("Items").Preload("Items.Product").
		Where("tenant_id = ? AND session_id = ?", tenantID, session).
		First(&cart)
	if result.Error != nil {
		// No cart yet is a normal state for a fresh session
		return response.JSON(c, http.StatusOK, model.Cart{TenantID: tenantID, SessionID: session, Items: []model.CartItem{}})
	}

	log.Debug("Cart retrieved", zap.Uint("cart_id", cart.ID), zap.Int("items", len(cart.Items)))
	return response.JSON(c, http.StatusOK, cart)
}

// AddItemRequest is the payload for adding a product to the cart
type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// AddItem adds a quantity of a product to the session's cart, creating the
// cart lazily. The inventory check runs against the new total line quantity,
// not just the delta.
func (h *CartHandler) AddItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("cart", "add_item")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	session, ok := sessionID(c)
	if !ok {
		return response.Error(c, http.StatusBadRequest, "X-Session-ID header is required")
	}

	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid add-to-cart request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}
	if req.ProductID == 0 || req.Quantity <= 0 {
		return response.Error(c, http.StatusBadRequest, "product_id and a positive quantity are required")
	}

	var product model.Product
	if result := h.db.Where("id = ? AND tenant_id = ? AND active = ?", req.ProductID, tenantID, true).First(&product); result.Error != nil {
		log.Warn("Product not found for cart", zap.Uint("product_id", req.ProductID))
		return response.Error(c, http.StatusNotFound, "product not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var cart model.Cart
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND session_id = ?", tenantID, session).
			First(&cart).Error; err != nil {
			cart = model.Cart{TenantID: tenantID, SessionID: session}
			if err := tx.Create(&cart).Error; err != nil {
				return err
			}
		}

		var item model.CartItem
		newTotal := req.Quantity
		if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, req.ProductID).
			First(&item).Error; err == nil {
			newTotal += item.Quantity
		}

		if newTotal > product.Inventory {
			return errInsufficientInventory
		}

		if item.ID != 0 {
			return tx.Model(&item).Update("quantity", newTotal).Error
		}
		return tx.Create(&model.CartItem{CartID: cart.ID, ProductID: req.ProductID, Quantity: req.Quantity}).Error
	})
	if err == errInsufficientInventory {
		log.Warn("Insufficient inventory for cart add",
			zap.Uint("product_id", req.ProductID),
			zap.Int("requested", req.Quantity),
			zap.Int("inventory", product.Inventory))
		prometheus.InsufficientStockCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "insufficient inventory")
	}
	if err != nil {
		log.Error("Failed to add cart item", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to update cart")
	}

	return h.reply(c, tenantID, session)
}

// UpdateItemRequest is the payload for changing a cart line quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a cart line's quantity. Zero removes the line.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("cart", "update_item")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	session, ok := sessionID(c)
	if !ok {
		return response.Error(c, http.StatusBadRequest, "X-Session-ID header is required")
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid item ID")
	}

	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}
	if req.Quantity < 0 {
		return response.Error(c, http.StatusBadRequest, "quantity must not be negative")
	}

	var cart model.Cart
	if result := h.db.Where("tenant_id = ? AND session_id = ?", tenantID, session).First(&cart); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "cart not found")
	}

	var item model.CartItem
	if result := h.db.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "cart item not found")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if req.Quantity == 0 {
		if err := h.db.Delete(&item).Error; err != nil {
			log.Error("Failed to remove cart item", zap.Error(err))
			return response.Error(c, http.StatusInternalServerError, "failed to update cart")
		}
		return h.reply(c, tenantID, session)
	}

	var product model.Product
	if result := h.db.Where("id = ? AND tenant_id = ?", item.ProductID, tenantID).First(&product); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "product not found")
	}
	if req.Quantity > product.Inventory {
		prometheus.InsufficientStockCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "insufficient inventory")
	}

	if err := h.db.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
		log.Error("Failed to update cart item", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to update cart")
	}

	return h.reply(c, tenantID, session)
}

// RemoveItem deletes one line from the cart
func (h *CartHandler) RemoveItem(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("cart", "remove_item")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	session, ok := sessionID(c)
	if !ok {
		return response.Error(c, http.StatusBadRequest, "X-Session-ID header is required")
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid item ID")
	}

	var cart model.Cart
	if result := h.db.Where("tenant_id = ? AND session_id = ?", tenantID, session).First(&cart); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "cart not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := h.db.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}, itemID)
	if result.Error != nil {
		log.Error("Failed to delete cart item", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to update cart")
	}
	if result.RowsAffected == 0 {
		return response.Error(c, http.StatusNotFound, "cart item not found")
	}

	return h.reply(c, tenantID, session)
}

// Clear removes the cart and all of its items
func (h *CartHandler) Clear(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("cart", "clear")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	session, ok := sessionID(c)
	if !ok {
		return response.Error(c, http.StatusBadRequest, "X-Session-ID header is required")
	}

	var cart model.Cart
	if result := h.db.Where("tenant_id = ? AND session_id = ?", tenantID, session).First(&cart); result.Error != nil {
		// Nothing to clear
		return response.JSON(c, http.StatusOK, echo.Map{"cleared": true})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	if err != nil {
		log.Error("Failed to clear cart", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to clear cart")
	}

	return response.JSON(c, http.StatusOK, echo.Map{"cleared": true})
}

func (h *CartHandler) reply(c echo.Context, tenantID uint, session string) error {
	var cart model.Cart
	result := h.db.Preload("Items").Preload("Items.Product").
		Where("tenant_id = ? AND session_id = ?", tenantID, session).
		First(&cart)
	if result.Error != nil {
		return response.JSON(c, http.StatusOK, model.Cart{TenantID: tenantID, SessionID: session, Items: []model.CartItem{}})
	}
	return response.JSON(c, http.StatusOK, cart)
}
