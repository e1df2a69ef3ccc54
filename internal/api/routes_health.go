package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/postboard/internal/handlers"
	"github.com/charlesng35/postboard/internal/monitoring"
	"github.com/charlesng35/postboard/internal/monitoring/checks"
)

func registerHealthRoutes(r *gin.Engine, deps Deps) {
	cfg := deps.Config

	if cfg.Monitoring.Health.Enabled {
		manager := monitoring.NewHealthManager(0)
		manager.Register("database", checks.Database(deps.DB))
		if deps.Cache != nil {
			manager.Register("cache", checks.Cache(deps.Cache))
		}

		r.GET("/health", handlers.Health(manager))
		r.GET("/health/live", handlers.Live)
		r.GET("/health/ready", handlers.Health(manager))
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}
}
