package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthFacade reports backing store connectivity.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// Health handles GET /api/health.
func Health(facade HealthFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := facade.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
