package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/factshield/core/internal/middleware"
	"github.com/factshield/core/internal/modules/analysis"
	"github.com/factshield/core/internal/modules/source"
	"github.com/factshield/core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name":    "factshield-core",
			"status":  "ok",
			"uptime":  time.Since(processStart).Truncate(time.Second).String(),
			"apiBase": "/api/v1",
		})
	})
	r.GET("/health", func(c *gin.Context) {
		status := "healthy"
		if !a.analysis.Healthy() {
			status = "degraded"
		}
		response.OK(c, gin.H{"status": status})
	})

	rateLimit := middleware.RateLimit(
		a.limiter,
		a.cfg.RateLimit.Limit,
		time.Duration(a.cfg.RateLimit.WindowSeconds)*time.Second,
	)

	v1 := r.Group("/api/v1")
	analysisHandler := analysis.NewHandler(a.analysis, nil, a.limiter, a.logger.Named("analysis"))
	analysisHandler.Register(v1, rateLimit)
	sourceHandler := source.NewHandler(a.sources)
	sourceHandler.RegisterRoutes(v1)
	v1.GET("/cron", func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
}
