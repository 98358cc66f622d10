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
	"sitebuilder-service/internal/sequence"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// OrderHandler implements public checkout and the admin order workflow
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler creates the order handler
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

// CheckoutRequest is the public checkout payload. The cart is identified by
// the X-Session-ID header.
type CheckoutRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Notes         string `json:"notes"`
}

// Checkout converts the session's cart into an order. Inventory is decremented
// with conditional single-row updates so two concurrent checkouts cannot
// oversell; the order number comes from the tenant's sequence; the cart is
// cleared on success. All of it commits or rolls back as one transaction.
func (h *OrderHandler) Checkout(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("orders", "checkout")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	session, ok := sessionID(c)
	if !ok {
		return response.Error(c, http.StatusBadRequest, "X-Session-ID header is required")
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid checkout request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request data")
	}
	if req.CustomerName == "" || req.CustomerEmail == "" {
		return response.Error(c, http.StatusBadRequest, "customer_name and customer_email are required")
	}

	var cart model.Cart
	if result := h.db.Preload("Items").Preload("Items.Product").
		Where("tenant_id = ? AND session_id = ?", tenantID, session).
		First(&cart); result.Error != nil || len(cart.Items) == 0 {
		return response.Error(c, http.StatusBadRequest, "cart is empty")
	}

	number, err := sequence.Next(h.db, tenantID, sequence.ScopeOrders)
	if err != nil {
		log.Error("Failed to assign order number", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "checkout failed")
	}

	order := model.Order{
		TenantID:      tenantID,
		Number:        number,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
		Status:        model.StatusPending,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	var soldOut string
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]model.OrderItem, 0, len(cart.Items))

		for _, line := range cart.Items {
			// Conditional decrement: affects zero rows when stock is short
			res := tx.Model(&model.Product{}).
				Where("id = ? AND tenant_id = ? AND inventory >= ?", line.ProductID, tenantID, line.Quantity).
				Update("inventory", gorm.Expr("inventory - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				soldOut = line.Product.Name
				return errInsufficientInventory
			}

			total += line.Product.Price * float64(line.Quantity)
			items = append(items, model.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Product.Name,
				Price:     line.Product.Price,
				Quantity:  line.Quantity,
			})
		}

		order.Total = total
		order.Items = items
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Successful checkout clears the cart
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	if err == errInsufficientInventory {
		log.Warn("Checkout rejected for stock", zap.String("product", soldOut))
		prometheus.InsufficientStockCounter.Inc()
		return response.Error(c, http.StatusConflict, fmt.Sprintf("insufficient inventory for %s", soldOut))
	}
	if err != nil {
		log.Error("Checkout transaction failed", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "checkout failed")
	}

	prometheus.CheckoutCounter.Inc()
	log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Int("number", order.Number),
		zap.Uint("tenant_id", tenantID),
		zap.Float64("total", order.Total))

	return response.JSON(c, http.StatusCreated, order)
}

// List handles retrieving the tenant's orders, newest first
func (h *OrderHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("orders", "list")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	page, limit, offset := response.PageParams(c)

	query := h.db.Model(&model.Order{}).Where("tenant_id = ?", tenantID)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Error("Failed to count orders", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve orders")
	}

	var orders []model.Order
	result := query.Preload("Items").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve orders")
	}

	return response.Page(c, http.StatusOK, orders, response.NewPagination(page, limit, total))
}

// Get handles retrieving a single order with its items
func (h *OrderHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("orders", "get")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid order ID")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var order model.Order
	result := h.db.Preload("Items").Where("id = ? AND tenant_id = ?", id, tenantID).First(&order)
	if result.Error != nil {
		log.Warn("Order not found", zap.Uint64("order_id", id), zap.Uint("tenant_id", tenantID))
		return response.Error(c, http.StatusNotFound, "order not found")
	}

	return response.JSON(c, http.StatusOK, order)
}

// StatusRequest is the payload for lifecycle transitions
type StatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves the order through its lifecycle. Transitions outside
// PENDING→{CONFIRMED,CANCELLED}, CONFIRMED→{COMPLETED,CANCELLED} are rejected.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	return updateStatusScoped(c, h.db, &model.Order{}, "orders", "order")
}

// Delete removes an order and its items
func (h *OrderHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordResourceOperation("orders", "delete")

	tenantID, ok := middleware.TenantIDFromContext(c)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		return response.Error(c, http.StatusBadRequest, "tenant context required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid order ID")
	}

	var order model.Order
	if result := h.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&order); result.Error != nil {
		return response.Error(c, http.StatusNotFound, "order not found")
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = h.db.Transaction(func(tx *gorm.DB) error {
		// Items go first so no orphaned rows survive a partial failure
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		log.Error("Failed to delete order", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "order deletion failed")
	}

	log.Info("Order deleted", zap.Uint("order_id", order.ID), zap.Uint("tenant_id", tenantID))
	return response.JSON(c, http.StatusOK, echo.Map{"deleted": order.ID})
}
