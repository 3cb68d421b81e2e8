package api

import (
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/book2game/backend/config"
	"github.com/book2game/backend/internal/middleware"
	"github.com/book2game/backend/internal/service"
)

// SetupAPI wires the service layer and registers every route under /api/v1.
// redisClient may be nil; caching and rate limiting then degrade to no-ops.
func SetupAPI(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var cacheClient service.RedisClient
	if redisClient != nil {
		cacheClient = redisClient
	}
	cache := service.NewCacheService(cacheClient, cfg.CacheTTL, logger)

	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	books := service.NewGoogleBooksService(cfg, cache, logger)
	llm := service.NewHuggingFaceService(cfg, cache, logger)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := service.NewGameGenerator(llm, rng, logger)
	recommendations := service.NewRecommendationService(
		db,
		books,
		service.NewTagMapper(logger),
		generator,
		service.NewSimilarityScorer(),
		cache,
		logger,
	)
	users := service.NewUserService(db, books, logger)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewRecommendationRateLimiter(redisClient, cfg.RecommendationRateLimit, cfg.RecommendationRateWindow)
	}

	health := NewHealthHandler(db, cache)
	router.GET("/health", health.HealthCheck)
	router.GET("/api/health", health.HealthCheck)

	v1 := router.Group("/api/v1")
	NewAuthHandler(authService, logger).RegisterRoutes(v1)
	NewBooksHandler(books, users, authService, logger).RegisterRoutes(v1)
	NewRecommendationsHandler(recommendations, authService, limiter, logger).RegisterRoutes(v1)
	NewUsersHandler(users, recommendations, authService, logger).RegisterRoutes(v1)
}
