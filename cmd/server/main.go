package main

import (
	"context" // context package is needed for Redis operations

	"ngo_tracker/internal/api"          // Custom package for API handlers
	"ngo_tracker/internal/config"       // Custom package for configuration
	"ngo_tracker/internal/db"           // Database connection
	"ngo_tracker/internal/donation"     // Donation lifecycle
	"ngo_tracker/internal/events"       // Domain events
	"ngo_tracker/internal/funding"      // Funding aggregation
	"ngo_tracker/internal/identity"     // Accounts and tokens
	"ngo_tracker/internal/metrics"      // Prometheus metrics
	"ngo_tracker/internal/store"        // Record store
	"ngo_tracker/internal/verification" // NGO workflow
	"ngo_tracker/internal/wallet"       // Wallet bridge

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus"          // Metrics registry
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"github.com/sirupsen/logrus"                              // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database
	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client, caching stays off without an address
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Warn("REDIS_ADDR not set, response caching disabled")
	}

	// Setup wallet bridge
	bridge, err := wallet.NewSolanaBridge(cfg.SolanaRPCURL, cfg.SolanaPayerKey)
	if err != nil {
		logrus.Fatalf("failed to set up wallet bridge: %v", err)
	}

	// Setup event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logrus.Fatalf("failed to connect to AMQP broker: %v", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Setup services
	records := store.New(gdb)
	donations := donation.NewService(records, bridge, publisher, m, cfg.NativeCurrency)

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
		Identity:     identity.NewService(records.Users, cfg.JWTSecret, publisher),
		Verification: verification.NewService(records, publisher, m),
		Donations:    donations,
		Funding:      funding.NewService(records.Donations),
		Cache:        api.Cache{Client: redisClient, TTL: cfg.CacheTTL},
		Metrics:      promhttp.Handler(),
	})

	signer, _ := bridge.Address(context.Background())
	logrus.WithField("signer", signer).Info("Server running on " + cfg.AppPort) // Log server start
	// Start the server on port cfg.AppPort
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
