package routes

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"field-service-server/config"
	"field-service-server/metrics"
	"field-service-server/middleware"
	"field-service-server/services"
	"field-service-server/types"
	ws "field-service-server/websocket"
)

// Dependencies are the services the HTTP layer is built from.
type Dependencies struct {
	Bookings *services.BookingService
	Setup    *services.SetupService
	Tokens   middleware.TokenValidator
	Hub      *ws.Hub
	Limiter  *middleware.RateLimiter
	CORS     config.CORSConfig

	// HealthCheck reports whether storage is reachable. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(deps.CORS))
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.AuditLogMiddleware())
	router.Use(metrics.Middleware())

	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", healthHandler(deps.HealthCheck))
	router.GET("/metrics", metrics.Handler())

	bookings := NewBookingHandler(deps.Bookings)

	api := router.Group("/api/v1")
	{
		// Public booking page, limited per tenant and client
		public := api.Group("/public/tenants/:tenant_id")
		if deps.Limiter != nil {
			public.Use(middleware.RateLimitMiddleware(deps.Limiter))
		}
		bookings.RegisterPublicBookingRoutes(public)

		// Dispatch boards authenticate with ?token= since browsers can't
		// set headers on websocket upgrades
		if deps.Hub != nil {
			dispatch := ws.NewDispatchHandler(deps.Hub, deps.CORS.AllowedOrigins)
			api.GET("/ws/dispatch", middleware.WebSocketAuthMiddleware(deps.Tokens), dispatch.HandleDispatch)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens))
		{
			bookings.RegisterStaffBookingRoutes(protected)

			if deps.Setup != nil {
				admin := protected.Group("/admin")
				admin.Use(middleware.RequireRole(types.RoleAdmin))
				NewSetupHandler(deps.Setup).RegisterSetupRoutes(admin)
			}
		}
	}

	log.Printf("🎯 All routes registered successfully")
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				log.Printf("❌ Health check failed: %v", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unavailable",
					"message": "Database is unreachable",
					"time":    time.Now().UTC(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Field Service scheduling server is running",
			"time":    time.Now().UTC(),
		})
	}
}
