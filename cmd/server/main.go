package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nibog/internal/api"
	"nibog/internal/cache"
	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/dispatch"
	"nibog/internal/email"
	"nibog/internal/logging"
	"nibog/internal/metrics"
	"nibog/internal/notify"
	"nibog/internal/sheets"
	"nibog/internal/whatsapp"
	"nibog/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	db, err := database.InitGorm(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.SyncConfig(db, cfg); err != nil {
		logrus.Fatalf("Failed to sync system settings: %v", err)
	}

	ctx := context.Background()
	contentCache := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)

	hub := ws.NewHub()
	go hub.Run()

	metrics.Register()

	whatsappClient := whatsapp.NewClient(cfg)
	mailer := email.NewSender(cfg)

	dispatcher := dispatch.NewService(db, cfg.DispatchDelay, hub)
	deps := api.Deps{
		Config:   cfg,
		DB:       db,
		Cache:    contentCache,
		Hub:      hub,
		WhatsApp: whatsappClient,
		Mailer:   mailer,
		Notifier: notify.NewNotifier(db, cfg, mailer, whatsappClient),
		Dispatch: dispatcher,
	}
	if cfg.GoogleCredentialsFile != "" && cfg.BookingsSpreadsheetID != "" {
		mirror, err := sheets.NewMirror(ctx, cfg.GoogleCredentialsFile, cfg.BookingsSpreadsheetID)
		if err != nil {
			logrus.WithError(err).Warn("Google Sheets mirror disabled")
		} else {
			deps.Sheet = mirror
			logrus.Info("Google Sheets mirror initialized")
		}
	} else {
		logrus.Info("Google Sheets not configured, bookings mirror disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Abort bulk runs first so synchronous ones release their requests.
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Dispatch runs did not finish")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	hub.Close()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logrus.Info("Server exited")
}
