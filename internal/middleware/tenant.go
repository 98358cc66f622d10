package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sitebuilder-service/internal/model"
	"sitebuilder-service/internal/response"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"
)

// TenantResolver resolves the tenant for public site routes. The leftmost
// label of the Host header is taken as the tenant subdomain; when the host
// carries no matching tenant, an explicit X-Tenant-ID header is consulted as
// a fallback. The request stops here when no tenant matches.
type TenantResolver struct {
	db *gorm.DB
	// baseDomain suppresses subdomain resolution for the bare root domain,
	// e.g. a request to "sites.example.com" itself has no tenant.
	baseDomain string
}

// NewTenantResolver creates the tenant resolution middleware
func NewTenantResolver(db *gorm.DB, baseDomain string) *TenantResolver {
	return &TenantResolver{db: db, baseDomain: baseDomain}
}

// Middleware resolves and attaches the tenant to the request context
func (t *TenantResolver) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		var tenant model.Tenant
		resolved := false

		if subdomain, ok := t.subdomainFromHost(c.Request().Host); ok {
			if result := t.db.Where("subdomain = ?", subdomain).First(&tenant); result.Error == nil {
				resolved = true
			} else {
				log.Warn("Unknown tenant subdomain", zap.String("subdomain", subdomain))
			}
		}

		if !resolved {
			header := c.Request().Header.Get("X-Tenant-ID")
			if header == "" {
				log.Warn("No tenant resolvable from request", zap.String("host", c.Request().Host))
				prometheus.TenantNotFoundCounter.Inc()
				return response.Error(c, http.StatusNotFound, "tenant not found")
			}
			id, err := strconv.ParseUint(header, 10, 32)
			if err != nil {
				log.Warn("Malformed X-Tenant-ID header", zap.String("value", header))
				prometheus.TenantNotFoundCounter.Inc()
				return response.Error(c, http.StatusNotFound, "tenant not found")
			}
			if result := t.db.First(&tenant, uint(id)); result.Error != nil {
				log.Warn("Unknown tenant ID", zap.Uint64("tenant_id", id))
				prometheus.TenantNotFoundCounter.Inc()
				return response.Error(c, http.StatusNotFound, "tenant not found")
			}
		}

		if !tenant.Active {
			log.Warn("Tenant is suspended", zap.Uint("tenant_id", tenant.ID))
			prometheus.TenantNotFoundCounter.Inc()
			return response.Error(c, http.StatusNotFound, "tenant not found")
		}

		c.Set(ContextTenant, &tenant)
		c.Set(ContextTenantID, tenant.ID)

		log.Debug("Tenant resolved",
			zap.Uint("tenant_id", tenant.ID),
			zap.String("subdomain", tenant.Subdomain))

		return next(c)
	}
}

// subdomainFromHost extracts the leftmost host label before the first dot.
// The bare base domain carries no tenant.
func (t *TenantResolver) subdomainFromHost(host string) (string, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.ToLower(host)
	if host == "" || host == t.baseDomain {
		return "", false
	}

	label, rest, found := strings.Cut(host, ".")
	if !found || label == "" || rest == "" {
		return "", false
	}

	return label, true
}

// RequireTenant asserts that tenant context was attached by an upstream
// middleware before any tenant-scoped handler runs. Unreachable when the
// resolver or auth middleware ran, but enforced independently so handlers
// never silently operate tenant-less.
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := TenantIDFromContext(c); !ok {
			logger.FromContext(c).Error("Handler reached without tenant context")
			prometheus.TenantContextMissingCounter.Inc()
			return response.Error(c, http.StatusBadRequest, "tenant context required")
		}
		return next(c)
	}
}
