package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/book2game/backend/config"
	"github.com/book2game/backend/internal/database"
	"github.com/book2game/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewGorm(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	// Redis is optional: without it caching and rate limiting degrade to
	// no-ops rather than blocking startup.
	redisClient, err := database.NewRedisClient(cfg, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without cache and rate limiting", zap.Error(err))
		redisClient = nil
	}

	srv := server.New(db, redisClient, cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
