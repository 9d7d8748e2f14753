package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports database and Redis connectivity. Redis is optional, so only
// a database failure makes the service unhealthy.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if db := h.kernel.DB(); db != nil {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["database"] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
		status = http.StatusServiceUnavailable
	}

	if rc := h.kernel.Cache(); rc != nil {
		if err := rc.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.kernel.Gorse() != nil {
		checks["gorse"] = "configured"
	} else {
		checks["gorse"] = "not configured"
	}
	checks["lightbox_sessions"] = h.kernel.Sessions().Len()

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"timestamp": time.Now().UTC(),
		"service":   "fanhub-gallery",
		"checks":    checks,
	})
}
