package handler

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sitebuilder-service/internal/middleware"
	"sitebuilder-service/internal/model"
	"sitebuilder-service/internal/response"
	"sitebuilder-service/pkg/config"
	"sitebuilder-service/pkg/jwtutil"
	"sitebuilder-service/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "test"},
	})
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func newTestJWT() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
}

func seedTenant(t *testing.T, db *gorm.DB, subdomain string) *model.Tenant {
	t.Helper()

	tenant := &model.Tenant{
		Name:      subdomain,
		Subdomain: subdomain,
		Plan:      model.PlanFree,
		Active:    true,
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// request builds an echo context with the tenant attached the way the
// resolver and auth middleware do it
type request struct {
	method  string
	target  string
	body    string
	tenant  *model.Tenant
	session string
	params  [][2]string
}

func (r request) do(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()

	e := echo.New()
	var reader *strings.Reader
	if r.body != "" {
		reader = strings.NewReader(r.body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(r.method, r.target, reader)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.session != "" {
		req.Header.Set("X-Session-ID", r.session)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if r.tenant != nil {
		c.Set(middleware.ContextTenant, r.tenant)
		c.Set(middleware.ContextTenantID, r.tenant.ID)
	}
	if len(r.params) > 0 {
		names := make([]string, len(r.params))
		values := make([]string, len(r.params))
		for i, p := range r.params {
			names[i] = p[0]
			values[i] = p[1]
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	require.NoError(t, h(c))

	var env response.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// decodeData re-marshals the envelope's data into a typed value
func decodeData(t *testing.T, env response.Envelope, out interface{}) {
	t.Helper()

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uint, name string, price float64, inventory int) *model.Product {
	t.Helper()

	product := &model.Product{
		TenantID:  tenantID,
		Name:      name,
		Price:     price,
		Inventory: inventory,
		Active:    true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
