package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/book2game/backend/internal/service"
)

// HealthHandler reports liveness of the API and its dependencies.
type HealthHandler struct {
	db    *gorm.DB
	cache service.ICacheInspector
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(db *gorm.DB, cache service.ICacheInspector) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// HealthCheck returns the health status of the API. Database failures
// degrade the status without taking the endpoint down.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	dbStatus := "up"

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			dbStatus = "down"
		}
	} else {
		status = "degraded"
		dbStatus = "down"
	}

	body := gin.H{
		"status":   status,
		"database": dbStatus,
		"version":  "v1.0.0",
	}
	if h.cache != nil {
		body["cache"] = h.cache.Stats()
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}
