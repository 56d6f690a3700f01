package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"accounts-backend/internal/common/config"
	"accounts-backend/internal/common/logger"
	"accounts-backend/internal/common/middleware"
	"accounts-backend/internal/features/session/redis"
	"accounts-backend/internal/features/upload"
	userHTTP "accounts-backend/internal/features/user/delivery/http"
	userRepo "accounts-backend/internal/features/user/repository/postgres"
	userService "accounts-backend/internal/features/user/service"
	"accounts-backend/internal/migrations"
	"accounts-backend/internal/platform/postgres"
	platformRedis "accounts-backend/internal/platform/redis"
)

// @title           Accounts Backend API
// @version         1.0
// @description     User accounts service: registration, session login, document uploads, and premium upgrades.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session_id
// @description Session cookie issued at login

// @tag.name users
// @tag.description User management, documents, and role transitions

// @tag.name sessions
// @tag.description Session login, logout, and the current-session view

func main() {
	cfg := config.Load()

	logger.Init("accounts-backend", cfg.Debug)
	logger.Info().Bool("debug", cfg.Debug).Msg("Starting accounts backend")

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	if err := migrations.Up(context.Background(), postgresClient.GetDB()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	redisClient, err := platformRedis.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	sessionStore := redis.NewStore(redisClient, cfg.Session.TTL)

	storage, err := newStorage(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	userRepository := userRepo.NewPostgresRepository(postgresClient.GetDB())
	userSvc := userService.NewUserService(userRepository, sessionStore, storage, cfg.Auth.BcryptCost)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.Origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		if err := postgresClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	api.Use(middleware.SessionAuth(sessionStore, cfg.Session.CookieName))

	userHandler := userHTTP.NewUserHandler(userSvc, userHTTP.SessionConfig{
		CookieName:   cfg.Session.CookieName,
		MaxAgeSecs:   int(cfg.Session.TTL.Seconds()),
		CookieSecure: cfg.Session.CookieSecure,
	})
	userHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}

	logger.Info().Msg("Server stopped")
}

func newStorage(cfg *config.Config) (upload.Storage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return upload.NewS3Storage(context.Background(), cfg)
	case "disk":
		return upload.NewDiskStorage(cfg.Storage.UploadsDir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}
