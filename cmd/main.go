package main

import (
	"sitebuilder-service/internal/handler"
	mid "sitebuilder-service/internal/middleware"
	"sitebuilder-service/internal/model"
	"sitebuilder-service/pkg/config"
	"sitebuilder-service/pkg/database"
	"sitebuilder-service/pkg/jwtutil"
	"sitebuilder-service/pkg/logger"
	"sitebuilder-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("sitebuilder-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting sitebuilder-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.Connect(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db, model.All()...); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)

	// Middleware with explicit dependencies
	auth := mid.NewAuth(db, jwt)
	tenantResolver := mid.NewTenantResolver(db, appConfig.Server.BaseDomain)

	// Handlers
	authHandler := handler.NewAuthHandler(db, jwt)
	siteHandler := handler.NewSiteHandler(db)
	productHandler := handler.NewProductHandler(db)
	cartHandler := handler.NewCartHandler(db)
	orderHandler := handler.NewOrderHandler(db)
	reservationHandler := handler.NewReservationHandler(db)
	serviceHandler := handler.NewServiceHandler(db)
	bookingHandler := handler.NewBookingHandler(db)
	postHandler := handler.NewPostHandler(db)
	commentHandler := handler.NewCommentHandler(db)
	teamHandler := handler.NewTeamHandler(db)
	caseStudyHandler := handler.NewCaseStudyHandler(db)
	healthHandler := handler.NewHealthHandler(db, appConfig.ServiceName)

	// Initialize Echo instance
	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", healthHandler.Check)

	// Auth routes - no tenant or token required for signup/login
	authAPI := e.Group("/api/auth")
	authAPI.POST("/signup", authHandler.Signup)
	authAPI.POST("/login", authHandler.Login)
	authAPI.GET("/me", authHandler.Me, auth.Middleware)

	// Public site routes - tenant resolved from subdomain or X-Tenant-ID
	publicAPI := e.Group("/api/public", tenantResolver.Middleware, mid.RequireTenant)
	publicAPI.GET("/site", siteHandler.PublicConfig)
	publicAPI.GET("/products", productHandler.PublicList)
	publicAPI.GET("/services", serviceHandler.PublicList)
	publicAPI.GET("/team", teamHandler.List)
	publicAPI.GET("/posts", postHandler.PublicList)
	publicAPI.GET("/posts/:slug", postHandler.PublicGetBySlug)
	publicAPI.POST("/posts/:id/comments", commentHandler.Create)
	publicAPI.GET("/case-studies", caseStudyHandler.PublicList)
	publicAPI.GET("/case-studies/:slug", caseStudyHandler.PublicGetBySlug)
	publicAPI.POST("/reservations", reservationHandler.Create)
	publicAPI.POST("/bookings", bookingHandler.Create)

	// Storefront cart and checkout - also public, keyed by session ID
	publicAPI.GET("/cart", cartHandler.Get)
	publicAPI.POST("/cart/items", cartHandler.AddItem)
	publicAPI.PUT("/cart/items/:id", cartHandler.UpdateItem)
	publicAPI.DELETE("/cart/items/:id", cartHandler.RemoveItem)
	publicAPI.DELETE("/cart", cartHandler.Clear)
	publicAPI.POST("/checkout", orderHandler.Checkout)

	// Admin routes - JWT required; tenant comes from the token's claims
	api := e.Group("/api", auth.Middleware, mid.RequireTenant)

	canEdit := mid.RequireRole(model.RoleAdmin, model.RoleEditor)
	adminOnly := mid.RequireRole(model.RoleAdmin)

	api.GET("/site/settings", siteHandler.GetSettings)
	api.PUT("/site/settings", siteHandler.UpdateSettings, canEdit)
	api.GET("/site/template", siteHandler.GetTemplate)
	api.PUT("/site/template", siteHandler.UpdateTemplate, canEdit)

	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/products", productHandler.Create, canEdit)
	api.PUT("/products/reorder", productHandler.Reorder, canEdit)
	api.PUT("/products/:id", productHandler.Update, canEdit)
	api.DELETE("/products/:id", productHandler.Delete, adminOnly)

	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", orderHandler.Get)
	api.PUT("/orders/:id/status", orderHandler.UpdateStatus, canEdit)
	api.DELETE("/orders/:id", orderHandler.Delete, adminOnly)

	api.GET("/reservations", reservationHandler.List)
	api.GET("/reservations/:id", reservationHandler.Get)
	api.PUT("/reservations/:id/status", reservationHandler.UpdateStatus, canEdit)
	api.DELETE("/reservations/:id", reservationHandler.Delete, adminOnly)

	api.GET("/services", serviceHandler.List)
	api.GET("/services/:id", serviceHandler.Get)
	api.POST("/services", serviceHandler.Create, canEdit)
	api.PUT("/services/reorder", serviceHandler.Reorder, canEdit)
	api.PUT("/services/:id", serviceHandler.Update, canEdit)
	api.DELETE("/services/:id", serviceHandler.Delete, adminOnly)

	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.PUT("/bookings/:id/status", bookingHandler.UpdateStatus, canEdit)
	api.DELETE("/bookings/:id", bookingHandler.Delete, adminOnly)

	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Get)
	api.POST("/posts", postHandler.Create, canEdit)
	api.PUT("/posts/:id", postHandler.Update, canEdit)
	api.DELETE("/posts/:id", postHandler.Delete, adminOnly)

	api.GET("/comments", commentHandler.List)
	api.PUT("/comments/:id/approve", commentHandler.Approve, canEdit)
	api.DELETE("/comments/:id", commentHandler.Delete, adminOnly)

	api.GET("/team", teamHandler.List)
	api.GET("/team/:id", teamHandler.Get)
	api.POST("/team", teamHandler.Create, canEdit)
	api.PUT("/team/reorder", teamHandler.Reorder, canEdit)
	api.PUT("/team/:id", teamHandler.Update, canEdit)
	api.DELETE("/team/:id", teamHandler.Delete, adminOnly)

	api.GET("/case-studies", caseStudyHandler.List)
	api.GET("/case-studies/:id", caseStudyHandler.Get)
	api.POST("/case-studies", caseStudyHandler.Create, canEdit)
	api.PUT("/case-studies/:id", caseStudyHandler.Update, canEdit)
	api.DELETE("/case-studies/:id", caseStudyHandler.Delete, adminOnly)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
