package main

import (
	"canteen_system/internal/api"     // HTTP handlers
	"canteen_system/internal/archive" // MySQL audit mirror
	"canteen_system/internal/auth"    // Credentials and tokens
	"canteen_system/internal/cache"   // Report cache
	"canteen_system/internal/config"  // Configuration
	"canteen_system/internal/ledger"  // Balance changes
	"canteen_system/internal/query"   // Read models
	"canteen_system/internal/seed"    // Demo data
	"canteen_system/internal/store"   // In-memory entity store
	"context"                         // Context for Redis and MySQL operations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.StandardLogger()

	// Seed the in-memory store
	s := store.New()
	if err := seed.Load(s, cfg.BcryptCost); err != nil {
		logrus.Fatalf("failed to seed store: %v", err)
	}

	// Setup Redis cache when configured
	var reportCache cache.Cache = cache.Nop{}
	if cfg.CacheEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		reportCache = cache.NewRedis(redisClient)
	}

	q := query.New(s,
		query.WithLocation(cfg.ReportLocation),
		query.WithCache(reportCache, cfg.CacheTTL),
		query.WithLogger(log),
	)

	opts := []ledger.Option{
		ledger.WithCeiling(cfg.RechargeCeiling),
		ledger.WithLogger(log),
		ledger.WithHook("stats-cache", func(ctx context.Context, _ ledger.Event) error {
			return q.Invalidate(ctx)
		}),
	}

	// Setup the MySQL archive when configured
	if cfg.ArchiveEnabled() {
		db, err := archive.Open(cfg.DSN())
		if err != nil {
			logrus.Fatalf("failed to connect to DB: %v", err)
		}
		arch := archive.New(db, log)
		if err := arch.Snapshot(context.Background(), s); err != nil {
			logrus.Fatalf("failed to write archive snapshot: %v", err)
		}
		opts = append(opts, ledger.WithHook("archive", arch.Record))
	}
	l := ledger.New(s, opts...)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default()

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.Register(r, api.Deps{
		Auth:   auth.NewService(s, log),
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Ledger: l,
		Query:  q,
	})

	logrus.WithFields(logrus.Fields{
		"port":    cfg.AppPort,
		"cache":   cfg.CacheEnabled(),
		"archive": cfg.ArchiveEnabled(),
	}).Info("Server running")
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
