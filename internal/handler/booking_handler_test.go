package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sitebuilder-service/internal/model"
)

func seedService(t *testing.T, db *gorm.DB, tenantID uint, name string, active bool) *model.Service {
	t.Helper()

	service := &model.Service{
		TenantID:        tenantID,
		Name:            name,
		Price:           50,
		DurationMinutes: 60,
		Active:          active,
	}
	require.NoError(t, db.Create(service).Error)
	return service
}

func TestBookingCreate(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	seedService(t, db, tenant.ID, "Personal Training", true)
	h := NewBookingHandler(db)

	rec, env := request{
		method: http.MethodPost,
		target: "/api/public/bookings",
		body:   `{"service_id":1,"name":"Jo","email":"jo@example.test","date":"2026-09-15T10:00:00Z"}`,
		tenant: tenant,
	}.do(t, h.Create)
	require.Equal(t, http.StatusCreated, rec.Code)

	var booking model.Booking
	decodeData(t, env, &booking)
	assert.Equal(t, model.StatusPending, booking.Status)
	assert.Equal(t, uint(1), booking.ServiceID)
}

func TestBookingCreateRejectsInactiveService(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	seedService(t, db, tenant.ID, "Retired Class", false)
	h := NewBookingHandler(db)

	rec, _ := request{
		method: http.MethodPost,
		target: "/api/public/bookings",
		body:   `{"service_id":1,"name":"Jo","email":"jo@example.test","date":"2026-09-15T10:00:00Z"}`,
		tenant: tenant,
	}.do(t, h.Create)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingCreateRejectsForeignService(t *testing.T) {
	db := newTestDB(t)
	acme := seedTenant(t, db, "acme")
	globex := seedTenant(t, db, "globex")
	seedService(t, db, acme.ID, "Personal Training", true)
	h := NewBookingHandler(db)

	rec, _ := request{
		method: http.MethodPost,
		target: "/api/public/bookings",
		body:   `{"service_id":1,"name":"Jo","email":"jo@example.test","date":"2026-09-15T10:00:00Z"}`,
		tenant: globex,
	}.do(t, h.Create)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingCreateRejectsBadDate(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	seedService(t, db, tenant.ID, "Personal Training", true)
	h := NewBookingHandler(db)

	rec, _ := request{
		method: http.MethodPost,
		target: "/api/public/bookings",
		body:   `{"service_id":1,"name":"Jo","email":"jo@example.test","date":"next tuesday"}`,
		tenant: tenant,
	}.do(t, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingListFiltersByService(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	yoga := seedService(t, db, tenant.ID, "Yoga", true)
	boxing := seedService(t, db, tenant.ID, "Boxing", true)
	h := NewBookingHandler(db)

	for _, serviceID := range []uint{yoga.ID, yoga.ID, boxing.ID} {
		require.NoError(t, db.Create(&model.Booking{
			TenantID: tenant.ID, ServiceID: serviceID, Name: "Jo",
			Email: "jo@example.test", Status: model.StatusPending,
		}).Error)
	}

	rec, env := request{
		method: http.MethodGet,
		target: "/api/bookings?service_id=1",
		tenant: tenant,
	}.do(t, h.List)
	require.Equal(t, http.StatusOK, rec.Code)

	var bookings []model.Booking
	decodeData(t, env, &bookings)
	assert.Len(t, bookings, 2)
}

func TestBookingStatusLifecycle(t *testing.T) {
	db := newTestDB(t)
	tenant := seedTenant(t, db, "acme")
	service := seedService(t, db, tenant.ID, "Yoga", true)
	require.NoError(t, db.Create(&model.Booking{
		TenantID: tenant.ID, ServiceID: service.ID, Name: "Jo",
		Email: "jo@example.test", Status: model.StatusPending,
	}).Error)
	h := NewBookingHandler(db)

	rec, _ := request{
		method: http.MethodPut,
		target: "/api/bookings/1/status",
		body:   `{"status":"CONFIRMED"}`,
		tenant: tenant,
		params: [][2]string{{"id", "1"}},
	}.do(t, h.UpdateStatus)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = request{
		method: http.MethodPut,
		target: "/api/bookings/1/status",
		body:   `{"status":"PENDING"}`,
		tenant: tenant,
		params: [][2]string{{"id", "1"}},
	}.do(t, h.UpdateStatus)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
