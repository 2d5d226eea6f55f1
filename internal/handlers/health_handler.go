package handlers

import (
	"context"
	"net/http"
	"time"

	"fleetdesk/internal/config"
	"fleetdesk/internal/repositories/interfaces"
	"fleetdesk/internal/utils"
	"fleetdesk/pkg/cache"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	cfg   *config.Config
	store interfaces.ResourceStore
	redis *cache.RedisCache
}

// NewHealthHandler reports on the store and, when configured, Redis.
func NewHealthHandler(cfg *config.Config, store interfaces.ResourceStore, redis *cache.RedisCache) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store, redis: redis}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	healthy := true

	if _, err := h.store.List(ctx, interfaces.CollectionRoutes, interfaces.Query{Limit: 1}); err != nil {
		checks["store"] = err.Error()
		healthy = false
	}
	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	data := gin.H{
		"service":     h.cfg.App.Name,
		"version":     h.cfg.App.Version,
		"environment": h.cfg.App.Environment,
		"store":       h.cfg.Store.Provider,
		"checks":      checks,
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Status:    utils.StatusError,
			Message:   "Service degraded",
			Data:      data,
			Timestamp: time.Now(),
		})
		return
	}
	utils.SuccessResponse(c, "Service healthy", data)
}
