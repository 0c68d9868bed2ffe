package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "sampletrack/api/swagger" // swagger docs
	"sampletrack/internal/app"
	"sampletrack/internal/config"
	"sampletrack/internal/database"
	"sampletrack/internal/handler"
	"sampletrack/internal/logger"
	"sampletrack/internal/middleware"
	"sampletrack/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Sample Tracker API
// @version         1.0
// @description     Apparel sample development tracking: stages, permissions, presence and on-time analytics.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	if cfg.Server.Mode == config.ModeRelease {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database, zl)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	zl.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zl)
	go wsHub.Run(ctx)

	// Set up dependencies (Repository -> Service -> Handler)
	svc, err := app.New(ctx, cfg, db, wsHub, zl)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	cookies := middleware.CookieConfig{
		Secure: cfg.Server.Mode == config.ModeRelease,
		TTL:    cfg.JWT.AccessTTL,
	}

	userHandler := handler.NewUserHandler(svc.Users, svc.Cache, cookies, zl)
	roleHandler := handler.NewRoleHandler(svc.Roles, zl)
	auditHandler := handler.NewAuditHandler(svc.Audit, zl)
	lookupHandler := handler.NewLookupHandler(svc.Lookups, zl)
	styleHandler := handler.NewStyleHandler(svc.Styles, zl)
	stageHandler := handler.NewStageHandler()
	sampleHandler := handler.NewSampleHandler(svc.Samples, svc.Presence, zl)
	analyticsHandler := handler.NewAnalyticsHandler(svc.Analytics, zl)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(zl), middleware.Metrics())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, cfg.JWTSecret())
	})

	api := router.Group("/api")
	userHandler.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(cfg.JWTSecret()))
	userHandler.RegisterRoutes(protected)
	roleHandler.RegisterRoutes(protected)
	auditHandler.RegisterRoutes(protected)
	lookupHandler.RegisterRoutes(protected)
	styleHandler.RegisterRoutes(protected)
	stageHandler.RegisterRoutes(protected)
	sampleHandler.RegisterRoutes(protected)
	analyticsHandler.RegisterRoutes(protected)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
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

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
