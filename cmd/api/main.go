package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"

	"github.com/spinlab/campaign-engine/api/routes"
	"github.com/spinlab/campaign-engine/internal/config"
	"github.com/spinlab/campaign-engine/internal/handlers"
	mongorepo "github.com/spinlab/campaign-engine/internal/repositories/mongodb"
	"github.com/spinlab/campaign-engine/internal/services"
	"github.com/spinlab/campaign-engine/pkg/mongodb"
)

func main() {
	// A missing .env is fine, configuration falls back to defaults.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err, "uri", cfg.MongoDB.URI)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	campaignRepo := mongorepo.NewCampaignRepository(db)
	auditRepo := mongorepo.NewAuditLogRepository(db)
	quotaRepo := mongorepo.NewQuotaRepository(db)
	userRepo := mongorepo.NewUserRepository(db)

	campaignService := services.NewCampaignService(campaignRepo, cfg.Campaign.DefaultStrategy)
	playService := services.NewPlayService(campaignRepo, auditRepo, quotaRepo)
	auditService := services.NewAuditService(auditRepo)
	authService := services.NewAuthService(userRepo, cfg)

	deps := routes.HandlerDependencies{
		AuthHandler:     handlers.NewAuthHandler(authService),
		CampaignHandler: handlers.NewCampaignHandler(campaignService),
		PlayHandler:     handlers.NewPlayHandler(playService),
		AuditHandler:    handlers.NewAuditHandler(auditService),
	}

	router := routes.SetupRouter(cfg, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
