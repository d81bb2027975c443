package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tabgate/api/handler"
	"github.com/use-agent/tabgate/api/middleware"
	"github.com/use-agent/tabgate/config"
)

// SetupRouter builds the gin engine with all routes and middleware.
func SetupRouter(cfg *config.Config, core handler.Core) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	startTime := time.Now()

	// Health endpoint is intentionally outside auth so load balancers and
	// uptime checks work without credentials.
	r.GET("/api/v1/health", handler.Health(core, startTime))

	v1 := r.Group("/api/v1")
	if cfg.Auth.Enabled {
		v1.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	v1.Use(middleware.RateLimit(cfg.RateLimit))
	{
		v1.POST("/session/open", handler.OpenSession(core))
		v1.GET("/session", handler.SessionStatus(core))
		v1.DELETE("/session", handler.CloseSession(core))
		v1.POST("/extract/:table", handler.Extract(core))
		v1.POST("/snapshot", handler.Snapshot(core))
	}

	return r
}
