package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/turnstile/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(gate *service.GateService) *gin.Engine {
	router := gin.Default()

	handlers := NewResourceHandlers()

	router.GET("/", handlers.Root)

	// Everything under /api sits behind the payment gate.
	api := router.Group("/api")
	api.Use(PaymentRequired(gate))
	{
		api.GET("/insight", handlers.Insight)
	}

	return router
}
