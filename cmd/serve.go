package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"field-service-server/config"
	"field-service-server/database"
	"field-service-server/jobs"
	"field-service-server/middleware"
	"field-service-server/repository"
	"field-service-server/routes"
	"field-service-server/services"
	ws "field-service-server/websocket"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, dispatch websocket and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.Initialize(cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	db := database.GetDB()
	store := repository.NewStore(db)

	hub := ws.NewHub()
	go hub.Run(ctx)

	bookings := services.NewBookingService(store, store, store, store,
		services.WithEvents(hub),
		services.WithCacheTTL(cfg.Booking.AvailabilityCacheTTL),
	)
	setup := services.NewSetupService(store, store, bookings)
	tokens := services.NewJWTService(cfg.JWT)

	limiter := middleware.NewRateLimiter(cfg.Server.PublicRateLimitPerMinute)
	go limiter.RunCleanup(ctx, 10*time.Minute)

	if cfg.Jobs.StaleSweepEnabled {
		job := jobs.NewStaleRequestJob(bookings, cfg.Jobs.StaleSweepInterval)
		job.Start()
		defer job.Stop()
	}

	router := routes.NewRouter(routes.Dependencies{
		Bookings: bookings,
		Setup:    setup,
		Tokens:   tokens,
		Hub:      hub,
		Limiter:  limiter,
		CORS:     cfg.CORS,
		HealthCheck: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("✅ Server stopped")
	return nil
}
