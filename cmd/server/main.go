package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulaPelizer/DocScriptum/internal/api"
	"github.com/paulaPelizer/DocScriptum/internal/config"
	"github.com/paulaPelizer/DocScriptum/internal/db"
	"github.com/paulaPelizer/DocScriptum/internal/email"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"github.com/paulaPelizer/DocScriptum/pkg/logger"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	cfg.LogConfig(zapLogger)

	database, err := db.Initialize(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize database", zap.Error(err))
	}

	collector := metrics.NewCollector()
	mailer := email.NewService(cfg.Mail)
	if !mailer.IsConfigured() {
		zapLogger.Warn("mail transport not configured, outgoing mail disabled")
	}

	tokenService, err := services.NewTokenService(
		cfg.Security.JWTSecret,
		cfg.Security.JWTExpMinutes,
		cfg.Security.ClockSkewSeconds,
	)
	if err != nil {
		zapLogger.Fatal("failed to initialize token service", zap.Error(err))
	}

	authService := services.NewAuthService(database, tokenService, mailer, cfg.Security, zapLogger, collector)
	docService := services.NewDocumentService(database, zapLogger, collector)
	requestService := services.NewRequestService(database, mailer, zapLogger, collector)
	grdService := services.NewGRDService(database, zapLogger, collector)
	projectService := services.NewProjectService(database, zapLogger)
	orgService := services.NewOrganizationService(database, zapLogger)
	resourceService := services.NewResourceService(database, zapLogger)
	lookupService := services.NewLookupService(database, zapLogger)

	router := api.NewRouter(
		zapLogger,
		collector,
		tokenService,
		authService,
		docService,
		requestService,
		grdService,
		projectService,
		orgService,
		resourceService,
		lookupService,
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
	zapLogger.Info("server stopped")
}
