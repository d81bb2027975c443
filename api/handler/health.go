package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/models"
)

// Version is the service version reported by the health endpoint.
const Version = "1.0.0"

// Health handles GET /api/v1/health.
func Health(core Core, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, _, _ := core.SessionState()
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       "healthy",
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionState: state,
			Tables:       len(core.TableNames()),
			Version:      Version,
		})
	}
}
