package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/book2game/backend/internal/middleware"
	"github.com/book2game/backend/internal/service"
)

// RecommendationsHandler serves the recommendation pipeline and its stored
// history.
type RecommendationsHandler struct {
	recommendations service.IRecommendationService
	validator       middleware.TokenValidator
	limiter         *middleware.RateLimiter
	logger          *zap.Logger
}

// NewRecommendationsHandler creates a new RecommendationsHandler instance
func NewRecommendationsHandler(recommendations service.IRecommendationService, validator middleware.TokenValidator, limiter *middleware.RateLimiter, logger *zap.Logger) *RecommendationsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationsHandler{
		recommendations: recommendations,
		validator:       validator,
		limiter:         limiter,
		logger:          logger,
	}
}

// RegisterRoutes registers the recommendation routes. Generation is rate
// limited per user, reads are not.
func (h *RecommendationsHandler) RegisterRoutes(router *gin.RouterGroup) {
	recs := router.Group("/recommendations")
	recs.Use(middleware.AuthMiddleware(h.validator))
	{
		generate := recs.Group("")
		if h.limiter != nil {
			generate.Use(h.limiter.RateLimitMiddleware())
		}
		generate.POST("", h.Generate)

		recs.GET("", h.List)
		recs.GET("/:id", h.Get)
	}
}

// currentUserID pulls the authenticated user out of the request context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *RecommendationsHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req GenerateRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.recommendations.GenerateRecommendation(c.Request.Context(), userID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		case errors.Is(err, service.ErrNoSuitableGames):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": service.ErrNoSuitableGames.Error()})
		case errors.Is(err, service.ErrUpstreamUnavailable),
			errors.Is(err, service.ErrGenerationFailed),
			errors.Is(err, service.ErrEmptyResponse),
			errors.Is(err, service.ErrParseFailure):
			h.logger.Error("recommendation generation failed",
				zap.String("user_id", userID.String()),
				zap.Uint("book_id", req.BookID),
				zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recommendation service unavailable, try again later"})
		default:
			h.logger.Error("recommendation generation failed",
				zap.String("user_id", userID.String()),
				zap.Uint("book_id", req.BookID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate recommendation"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *RecommendationsHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit, offset := paginationParams(c)
	recs, err := h.recommendations.ListRecommendations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("recommendation list failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recommendations"})
		return
	}

	c.JSON(http.StatusOK, recs)
}

func (h *RecommendationsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recommendation id"})
		return
	}

	rec, err := h.recommendations.GetRecommendation(c.Request.Context(), userID, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrRecommendationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recommendation not found"})
			return
		}
		h.logger.Error("recommendation fetch failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recommendation"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// paginationParams reads skip/limit query parameters with sane bounds.
func paginationParams(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err = strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
