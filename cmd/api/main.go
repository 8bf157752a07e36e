package main

import (
	"context"
	"go-contact-backend/config"
	_ "go-contact-backend/docs" // Important for Swagger
	v1 "go-contact-backend/internal/delivery/http/v1"
	"go-contact-backend/internal/domain"
	"go-contact-backend/internal/extension"
	"go-contact-backend/internal/repository/postgres"
	"go-contact-backend/internal/usecase"
	"go-contact-backend/pkg/database"
	"go-contact-backend/pkg/email"
	"go-contact-backend/pkg/logger"
	"go-contact-backend/pkg/recaptcha"
	"go-contact-backend/pkg/redis"
	"go-contact-backend/pkg/security"
	"go-contact-backend/pkg/validation"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title           Contact Backend API
// @version         1.0
// @description     Contact form and dataset suggestion mail service.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init()
	audit := security.InitSecurityLogger("contact-backend", cfg.Environment)
	defer audit.Sync()
	logger.Log.Info("Starting contact backend", "port", cfg.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. Load Site Settings
	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Log.Error("Failed to load site settings", "file", cfg.SettingsFile, "error", err)
		os.Exit(1)
	}

	// 4. Setup Database (dataset contact routing)
	var datasetRepo domain.DatasetRepository
	var dbPing usecase.Pinger
	if cfg.DBUrl != "" {
		dbPool, err := database.NewPostgresConnection(context.Background(), cfg.DBUrl)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		datasetRepo = postgres.NewDatasetRepository(dbPool)
		dbPing = dbPool.Ping
	}

	// 5. Setup Redis (rate limiting)
	var redisPing usecase.Pinger
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable - rate limiting uses in-memory fallback", "error", err)
	} else {
		defer redis.Close()
		redisPing = redis.HealthCheck
	}

	// 6. Setup Email Service
	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - contact messages will not be delivered")
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		logger.Log.Error("Failed to parse email templates", "error", err)
		os.Exit(1)
	}

	// 7. Setup reCAPTCHA
	captcha := recaptcha.NewClient(recaptcha.Config{
		Secret:         settings.Get(config.KeyRecaptchaSecret, ""),
		ScoreThreshold: settings.Float(config.KeyRecaptchaScoreThreshold, 0.5),
		Timeout:        time.Duration(settings.Int(config.KeyRecaptchaTimeout, 5)) * time.Second,
	})
	if !captcha.Enabled() {
		logger.Log.Warn("reCAPTCHA secret not set - submissions are not checked")
	}

	// 8. Setup UseCases
	contactUC := usecase.NewContactUsecase(usecase.ContactDeps{
		Settings:  settings,
		Clock:     domain.SystemClock{},
		Validate:  validation.New(),
		Recaptcha: captcha,
		Renderer:  renderer,
		Mailer:    emailService,
		Datasets:  datasetRepo,
		Alterers:  extension.Defaults(settings),
		Audit:     audit,
		Logger:    logger.Log,
	})
	healthUC := usecase.NewHealthUsecase(map[string]usecase.Pinger{
		"database": dbPing,
		"redis":    redisPing,
	})

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  healthUC,
		Config:    cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
