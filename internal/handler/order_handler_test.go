package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sitebuilder-service/internal/model"
)

func fillCart(t *testing.T, db *gorm.DB, tenant *model.Tenant, session string, productID uint, quantity int) {
	t.Helper()

	cart := model.Cart{TenantID: tenant.ID, SessionID: session}
	require.NoError(t, db.Where("tenant_id = ? AND session_id = ?", tenant.ID, session).
		FirstOrCreate(&cart).Error)
	require.NoError(t, db.Create(&model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error)
}

func TestCheckoutCreatesOrder(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	product := seedProduct(t, db, tenant.ID, "Margherita", 9.5, 10)
	fillCart(t, db, tenant, "session-1", product.ID, 2)
	h := NewOrderHandler(db)

	rec, env := request{
		method:  http.MethodPost,
		target:  "/api/public/checkout",
		body:    `{"customer_name":"Jo","customer_email":"jo@example.test"}`,
		tenant:  tenant,
		session: "session-1",
	}.do(t, h.Checkout)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order model.Order
	decodeData(t, env, &order)
	assert.Equal(t, 0, order.Number)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, 19.0, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Margherita", order.Items[0].Name)
	assert.Equal(t, 9.5, order.Items[0].Price)

	// Inventory decremented, cart gone
	var got model.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	assert.Equal(t, 8, got.Inventory)

	var carts int64
	db.Model(&model.Cart{}).Count(&carts)
	assert.Equal(t, int64(0), carts)
}

func TestCheckoutNumbersArePerTenant(t *testing.T) {
	db := newTestDB(t)
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")
	h := NewOrderHandler(db)

	mine := seedProduct(t, db, acme.ID, "Margherita", 9.5, 10)
	theirs := seedProduct(t, db, globex.ID, "Protein Bar", 3, 10)

	checkout := func(tenant *model.Tenant, productID uint, session string) model.Order {
		fillCart(t, db, tenant, session, productID, 1)
		rec, env := request{
			method:  http.MethodPost,
			target:  "/api/public/checkout",
			body:    `{"customer_name":"Jo","customer_email":"jo@example.test"}`,
			tenant:  tenant,
			session: session,
		}.do(t, h.Checkout)
		require.Equal(t, http.StatusCreated, rec.Code)
		var order model.Order
		decodeData(t, env, &order)
		return order
	}

	assert.Equal(t, 0, checkout(acme, mine.ID, "s1").Number)
	assert.Equal(t, 1, checkout(acme, mine.ID, "s2").Number)
	assert.Equal(t, 0, checkout(globex, theirs.ID, "s3").Number)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	h := NewOrderHandler(db)

	rec, env := request{
		method:  http.MethodPost,
		target:  "/api/public/checkout",
		body:    `{"customer_name":"Jo","customer_email":"jo@example.test"}`,
		tenant:  tenant,
		session: "session-1",
	}.do(t, h.Checkout)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart is empty", env.Error)
}

func TestCheckoutRollsBackOnInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	plenty := seedProduct(t, db, tenant.ID, "Margherita", 9.5, 10)
	scarce := seedProduct(t, db, tenant.ID, "Truffle Special", 25, 1)

	// Cart holds more of the scarce product than is in stock; the quantity was
	// fine when it was added but stock moved since
	fillCart(t, db, tenant, "session-1", plenty.ID, 2)
	fillCart(t, db, tenant, "session-1", scarce.ID, 3)
	h := NewOrderHandler(db)

	rec, env := request{
		method:  http.MethodPost,
		target:  "/api/public/checkout",
		body:    `{"customer_name":"Jo","customer_email":"jo@example.test"}`,
		tenant:  tenant,
		session: "session-1",
	}.do(t, h.Checkout)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.Error, "insufficient inventory")

	// Nothing committed: the first line's decrement rolled back too
	var got model.Product
	require.NoError(t, db.First(&got, plenty.ID).Error)
	assert.Equal(t, 10, got.Inventory)

	var orders int64
	db.Model(&model.Order{}).Count(&orders)
	assert.Equal(t, int64(0), orders)

	// The cart survives so the shopper can adjust it
	var items int64
	db.Model(&model.CartItem{}).Count(&items)
	assert.Equal(t, int64(2), items)
}

func seedOrder(t *testing.T, db *gorm.DB, tenantID uint, status string) *model.Order {
	t.Helper()

	order := &model.Order{
		TenantID:      tenantID,
		Number:        0,
		CustomerName:  "Jo",
		CustomerEmail: "jo@example.test",
		Total:         19,
		Status:        status,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderStatusTransitions(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	h := NewOrderHandler(db)

	order := seedOrder(t, db, tenant.ID, model.StatusPending)

	update := func(status string) (int, string) {
		rec, env := request{
			method: http.MethodPut,
			target: "/api/orders/1/status",
			body:   `{"status":"` + status + `"}`,
			tenant: tenant,
			params: [][2]string{{"id", "1"}},
		}.do(t, h.UpdateStatus)
		return rec.Code, env.Error
	}

	// PENDING -> COMPLETED skips CONFIRMED
	code, msg := update(model.StatusCompleted)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, msg, "cannot transition")

	code, _ = update(model.StatusConfirmed)
	assert.Equal(t, http.StatusOK, code)

	code, _ = update(model.StatusCompleted)
	assert.Equal(t, http.StatusOK, code)

	// COMPLETED is terminal
	code, _ = update(model.StatusCancelled)
	assert.Equal(t, http.StatusConflict, code)

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestOrderStatusRejectsUnknownValue(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	seedOrder(t, db, tenant.ID, model.StatusPending)
	h := NewOrderHandler(db)

	rec, _ := request{
		method: http.MethodPut,
		target: "/api/orders/1/status",
		body:   `{"status":"SHIPPED"}`,
		tenant: tenant,
		params: [][2]string{{"id", "1"}},
	}.do(t, h.UpdateStatus)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderStatusIsTenantScoped(t *testing.T) {
	db := newTestDB(t)
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")
	seedOrder(t, db, acme.ID, model.StatusPending)
	h := NewOrderHandler(db)

	rec, _ := request{
		method: http.MethodPut,
		target: "/api/orders/1/status",
		body:   `{"status":"CONFIRMED"}`,
		tenant: globex,
		params: [][2]string{{"id", "1"}},
	}.do(t, h.UpdateStatus)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderListFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	seedOrder(t, db, tenant.ID, model.StatusPending)
	seedOrder(t, db, tenant.ID, model.StatusConfirmed)
	seedOrder(t, db, tenant.ID, model.StatusConfirmed)
	h := NewOrderHandler(db)

	rec, env := request{
		method: http.MethodGet,
		target: "/api/orders?status=CONFIRMED",
		tenant: tenant,
	}.do(t, h.List)
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []model.Order
	decodeData(t, env, &orders)
	assert.Len(t, orders, 2)
}

func TestOrderDeleteRemovesItems(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	order := seedOrder(t, db, tenant.ID, model.StatusCancelled)
	require.NoError(t, db.Create(&model.OrderItem{
		OrderID: order.ID, ProductID: 1, Name: "Margherita", Price: 9.5, Quantity: 2,
	}).Error)
	h := NewOrderHandler(db)

	rec, _ := request{
		method: http.MethodDelete,
		target: "/api/orders/1",
		tenant: tenant,
		params: [][2]string{{"id", "1"}},
	}.do(t, h.Delete)
	require.Equal(t, http.StatusOK, rec.Code)

	var items int64
	db.Model(&model.OrderItem{}).Count(&items)
	assert.Equal(t, int64(0), items)
}

func TestOrderStatusUpdateDetectsConcurrentTransition(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	h := NewOrderHandler(db)
	order := seedOrder(t, db, tenant.ID, model.StatusPending)

	// Move the row out from under the handler between its read and its write.
	flipped := false
	err := db.Callback().Update().Before("gorm:update").Register("concurrent_flip", func(tx *gorm.DB) {
		if flipped {
			return
		}
		flipped = true
		db.Exec("UPDATE orders SET status = ? WHERE id = ?", model.StatusCancelled, order.ID)
	})
	require.NoError(t, err)

	rec, env := request{
		method: http.MethodPut,
		target: "/api/orders/1/status",
		body:   `{"status":"` + model.StatusConfirmed + `"}`,
		tenant: tenant,
		params: [][2]string{{"id", "1"}},
	}.do(t, h.UpdateStatus)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, env.Error, "status changed")

	var got model.Order
	require.NoError(t, db.First(&got, order.ID).Error)
	assert.Equal(t, model.StatusCancelled, got.Status)
}
