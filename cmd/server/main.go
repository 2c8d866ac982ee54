package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/api/routes"
	"ourhotel/internal/config"
	"ourhotel/internal/logger"
	"ourhotel/internal/models"
	"ourhotel/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log)

	// Initialize database
	if err := models.InitDB(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Seed the default admin and room catalog on an empty database
	authService := services.NewAuthService(cfg)
	if err := authService.CreateDefaultAdmin(); err != nil {
		slog.Warn("failed to create default admin", "error", err)
	}

	bookingService := services.NewBookingService(cfg, services.NewAuditService(cfg))
	if err := bookingService.SeedRooms(); err != nil {
		slog.Warn("failed to seed rooms", "error", err)
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	r := gin.New()
	r.Use(gin.Recovery())

	// Setup routes
	routes.SetupRoutes(r, cfg)

	// Run server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting OURHOTEL server", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
