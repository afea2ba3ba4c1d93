package routes

import (
	"efb/internal/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter wires the controllers and API routes. gatherer backs /metrics;
// nil leaves the endpoint out.
func SetupRouter(svc controllers.EfinanceService, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	efinanceController := controllers.EfinanceController{Service: svc, Logger: logger}

	// Set up Gin router
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", efinanceController.Health)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Group API routes under /api/v1
	api := router.Group("/api/v1")
	{
		// GET /api/v1/companies?company_name=&business_type=&status=&refresh=&format=
		api.GET("/companies", efinanceController.SearchCompanies)

		// GET /api/v1/statistics?refresh=&format=
		api.GET("/statistics", efinanceController.GetStatistics)
	}

	return router
}
