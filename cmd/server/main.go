package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Error matching
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"etuition/internal/api"     // Custom package for API handlers
	"etuition/internal/config"  // Custom package for configuration
	"etuition/internal/events"  // Payment event publisher
	"etuition/internal/payment" // Stripe bridge
	"etuition/internal/store"   // Data store

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	// Setup the data store
	var st store.Store
	closeStore := func() {}
	switch cfg.DBDriver {
	case config.DriverMemory:
		logrus.Warn("Using in-memory store, data is lost on exit")
		st = store.NewMemoryStore()
	case config.DriverMySQL:
		db, err := store.Open(cfg.DSN())
		if err != nil {
			logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
		}
		sqlDB, err := db.DB()
		if err != nil {
			logrus.Fatalf("failed to get DB pool: %v", err)
		}
		closeStore = func() { _ = sqlDB.Close() }
		st = store.NewGormStore(db)
	default:
		logrus.Fatalf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	// Setup Redis client; the listing cache is optional
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	}

	// Payment events go to RabbitMQ when configured
	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitURL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.PaymentExchange)
		if err != nil {
			logrus.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		publisher = p
	}

	if cfg.StripeSecret == "" {
		logrus.Warn("STRIPE_SECRET is empty, checkout calls will fail")
	}
	payments := payment.NewService(
		payment.NewStripeProvider(cfg.StripeSecret, cfg.StripeWebhookSecret),
		st, publisher, cfg.StripeCurrency, cfg.SiteDomain,
	)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		Store:        st,
		Cache:        redisClient,
		Payments:     payments,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL(),
		AllowOrigins: []string{cfg.SiteDomain}, // The front end calls from SITE_DOMAIN
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	// Wait for interrupt, then drain in-flight requests
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("Graceful shutdown failed")
	}
	if err := publisher.Close(); err != nil {
		logrus.WithField("error", err.Error()).Warn("Closing publisher failed")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	closeStore()
}
