package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/cart-service/config"
	"github.com/ikkim/cart-service/internal/app/catalog"
	"github.com/ikkim/cart-service/internal/app/controller"
	"github.com/ikkim/cart-service/internal/app/service"
	"github.com/ikkim/cart-service/internal/app/store"
	"github.com/ikkim/cart-service/internal/db"
	"github.com/ikkim/cart-service/internal/middleware"
	"github.com/ikkim/cart-service/internal/router"
	"github.com/ikkim/cart-service/pkg/logger"
	"github.com/ikkim/cart-service/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Cart Service", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"log_level":    logLevel,
		"cart_ttl":     cfg.Cart.DefaultTTL.String(),
		"max_quantity": cfg.Cart.MaxQuantity,
	})

	// Initialize Redis (cart storage)
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize catalog database (read-only pricing source)
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize catalog database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize storage and catalog clients
	cartStore := store.NewRedisCartStore(redis.GetClient(), cfg.Cart.DefaultTTL)
	catalogClient := catalog.NewDBClient(db.GetDB())

	// Initialize services
	cartService := service.NewCartService(cartStore, catalogClient, cfg.Cart)

	// Initialize controllers
	cartController := controller.NewCartController(cartService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(cartController, authMiddleware, cfg)
	engine := r.Setup()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
