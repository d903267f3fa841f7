package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging
	"time"    // time package for cache TTLs

	"stocksim/internal/api"        // Custom package for API handlers
	"stocksim/internal/config"     // Custom package for configuration
	"stocksim/internal/jobs"       // Background jobs
	"stocksim/internal/ledger"     // Ledger store
	"stocksim/internal/market"     // Quote API client
	"stocksim/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	gormDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	store := ledger.NewStore(gormDB, cfg.StartingCash)              // Ledger store
	oracle := market.NewClient(cfg.MarketBaseURL, cfg.MarketAPIKey) // Quote API client
	quoteTTL := time.Duration(cfg.QuoteTTL) * time.Second           // Quote cache TTL

	// Schedule the held-symbol price snapshot job (disabled when spec empty)
	if c := jobs.StartPriceSnapshots(cfg.SnapshotSpec, store, oracle); c != nil {
		defer c.Stop()
	}

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

	// Auth routes
	r.POST("/register", api.RegisterHandler(store))          // Registration endpoint
	r.POST("/login", api.LoginHandler(store, cfg.JWTSecret)) // Login endpoint

	// Trading routes (protected by JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	auth.GET("/portfolio", api.PortfolioHandler(store, oracle, redisClient, quoteTTL)) // Portfolio endpoint
	auth.POST("/buy", api.BuyHandler(store, oracle, redisClient, quoteTTL))            // Buy endpoint
	auth.POST("/sell", api.SellHandler(store, oracle, redisClient, quoteTTL))          // Sell endpoint
	auth.POST("/funds", api.AddFundsHandler(store, redisClient))                       // Add funds endpoint
	auth.GET("/history", api.HistoryHandler(store, redisClient))                       // Transaction history endpoint
	auth.GET("/quote/:symbol", api.QuoteHandler(store, oracle, redisClient, quoteTTL)) // Quote endpoint
	auth.GET("/prices/:symbol/history", api.PricesHandler(store, oracle))              // Price history endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
