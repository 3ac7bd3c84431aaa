// Package api serves estimates, analyses and session analytics over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/omegabytes/ecocode-sentinel/analyzer"
	"github.com/omegabytes/ecocode-sentinel/metrics"
)

type RouterConfig struct {
	ServiceName string
	Tracing     bool
}

// NewRouter returns the engine with middleware and routes installed. collector may be nil, in
// which case /metrics is not served.
func NewRouter(cfg RouterConfig, svc *analyzer.Service, collector *metrics.Collector) *gin.Engine {
	router := gin.New()

	// OTel creates the span first so Recovery and Logger see the trace context.
	if cfg.Tracing {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(Recovery())
	router.Use(Logger())

	SetupRoutes(router, NewHandler(svc), collector)
	return router
}

func SetupRoutes(router *gin.Engine, h *Handler, collector *metrics.Collector) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/estimate", h.Estimate)
		v1.POST("/analyses", h.Analyze)
		v1.GET("/session", h.Session)
	}
}
