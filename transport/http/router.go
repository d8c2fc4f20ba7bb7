package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/adapters/metrics"
)

// SetupRouter sets up the Gin router. A nil collector disables /metrics.
func SetupRouter(octopus *w3o.Octopus, logger *zap.Logger, collector *metrics.Collector) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger.Named("http"), collector))

	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	// Create handlers
	handlers := NewHandlers(octopus)

	router.GET("/snapshot", handlers.Snapshot)

	// Network routes
	networks := router.Group("/networks")
	{
		networks.GET("", handlers.Networks)
		networks.PUT("/current", handlers.SetCurrentNetwork)
	}

	// Session routes
	sessions := router.Group("/sessions")
	{
		sessions.GET("", handlers.Sessions)
		sessions.PUT("/current", handlers.SetCurrentSession)
		sessions.GET("/current", RequireSession(octopus), handlers.CurrentSession)
	}

	router.POST("/login", handlers.Login)
	router.POST("/logout", RequireSession(octopus), handlers.Logout)

	return router
}
