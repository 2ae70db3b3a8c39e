package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scosmb/license-console/internal/config"
	"github.com/scosmb/license-console/internal/handler"
	"github.com/scosmb/license-console/internal/handler/middleware"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/service"
	"github.com/scosmb/license-console/internal/storage/postgres"
	"github.com/scosmb/license-console/internal/storage/redis"
	"github.com/scosmb/license-console/internal/worker"
	"github.com/scosmb/license-console/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()
	sugarLogger.Info("Starting license console...")

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	keyRepo := postgres.NewKeyRepository(dbPool, appLogger)
	adminRepo := postgres.NewAdminRepository(dbPool, appLogger)
	techRepo := postgres.NewTechRepository(dbPool, appLogger)
	settingsRepo := postgres.NewSettingsRepository(dbPool, appLogger)
	grantStore := redis.NewGrantStore(redisClient, appLogger)

	keyService := service.NewKeyService(keyRepo, appLogger)
	downloadService := service.NewDownloadService(keyRepo, settingsRepo, grantStore, cfg.License.GrantTTL, appLogger)
	adminService := service.NewAdminService(adminRepo, appLogger)
	techService := service.NewTechService(techRepo, appLogger)
	settingsService := service.NewSettingsService(settingsRepo, appLogger)
	exportService := service.NewExportService(keyRepo, appLogger)
	authService := service.NewAuthService(adminRepo, &cfg.JWT, appLogger)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, appLogger)
	keyHandler := handler.NewKeyHandler(keyService, exportService, appLogger)
	downloadHandler := handler.NewDownloadHandler(downloadService, appLogger)
	adminHandler := handler.NewAdminHandler(adminService, appLogger)
	techHandler := handler.NewTechHandler(techService, appLogger)
	dashboardHandler := handler.NewDashboardHandler(keyService, appLogger)
	settingsHandler := handler.NewSettingsHandler(settingsService, appLogger)
	authHandler := handler.NewAuthHandler(authService, int64(cfg.JWT.TokenTTL.Seconds()), appLogger)

	authMiddleware := middleware.AuthMiddleware(authService, appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(errorMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := router.Group("/api/v1/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}

	apiV1 := router.Group("/api/v1")
	{
		// Download portal: the license key itself is the credential.
		apiV1.POST("/download", downloadHandler.Attempt)
		apiV1.GET("/download/:token", downloadHandler.Redeem)

		keyRoutes := apiV1.Group("/keys")
		keyRoutes.Use(authMiddleware)
		{
			keyRoutes.POST("", keyHandler.Generate)
			keyRoutes.GET("", keyHandler.List)
			keyRoutes.POST("/revoke", keyHandler.Revoke)
			keyRoutes.PATCH("/:code/customer", keyHandler.UpdateCustomer)
			keyRoutes.GET("/export", keyHandler.Export)
		}

		adminRoutes := apiV1.Group("/admins")
		adminRoutes.Use(authMiddleware)
		{
			adminRoutes.POST("", adminHandler.Create)
			adminRoutes.GET("", adminHandler.List)
			adminRoutes.PATCH("/:id", adminHandler.Update)
			adminRoutes.DELETE("/:id", adminHandler.Delete)
		}

		techRoutes := apiV1.Group("/tech-users")
		techRoutes.Use(authMiddleware)
		{
			techRoutes.POST("", techHandler.Create)
			techRoutes.GET("", techHandler.List)
			techRoutes.PATCH("/:id", techHandler.Update)
			techRoutes.DELETE("/:id", techHandler.Delete)
		}

		dashboardRoutes := apiV1.Group("/dashboard")
		dashboardRoutes.Use(authMiddleware)
		{
			dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
		}

		settingsRoutes := apiV1.Group("/settings")
		settingsRoutes.Use(authMiddleware)
		{
			settingsRoutes.GET("", settingsHandler.Get)
			settingsRoutes.PUT("", settingsHandler.Update)
		}
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, keyRepo, settingsRepo, appLogger); err != nil {
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("License console started. Waiting for interrupt signal or component error...")

	if waitErr := g.Wait(); waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: context canceled (likely OS signal).")
		} else {
			sugarLogger.Errorf("Shutdown finished with error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Shutdown finished cleanly.")
	}
}
