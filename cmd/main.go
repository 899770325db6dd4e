package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/gforms-server/cache"
	"github.com/vnkhanh/gforms-server/config"
	"github.com/vnkhanh/gforms-server/controllers"
	"github.com/vnkhanh/gforms-server/middleware"
	"github.com/vnkhanh/gforms-server/odoo"
	"github.com/vnkhanh/gforms-server/routes"
	"github.com/vnkhanh/gforms-server/storage"
	"github.com/vnkhanh/gforms-server/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.ConnectDB(cfg.Database); err != nil {
		return err
	}
	utils.ConfigureJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	reports, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if closer, ok := reports.(io.Closer); ok {
		defer closer.Close()
	}

	services := controllers.Services{
		Reports:        reports,
		Uploader:       storage.New(cfg.Storage, cfg.Server.ExportDir),
		GoogleClientID: cfg.Auth.GoogleClientID,
		OdooTokenTTL:   cfg.Odoo.TokenTTL,
		Logger:         logger,
	}
	if cfg.Odoo.Enabled() {
		client, err := odoo.NewClient(cfg.Odoo)
		if err != nil {
			return err
		}
		services.Odoo = client
	}
	controllers.Init(services)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, cfg.RateLimit.TTL)
	defer limiter.Stop()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))

	origins := cfg.Server.Origins()
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return slices.Contains(origins, origin)
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Forms server is running")
	})
	routes.SetupRoutes(r, limiter)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
