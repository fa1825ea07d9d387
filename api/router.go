package api

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/rivalscope/api/handler"
	"github.com/use-agent/rivalscope/api/middleware"
	"github.com/use-agent/rivalscope/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     RateLimit
//
// Health sits outside the rate limit so health checks always answer.
func NewRouter(sc handler.Scraper, batches *handler.BatchStore, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(sc))

	limited := v1.Group("")
	limited.Use(limiter.Handler())

	limited.POST("/scrape", handler.Scrape(sc))
	limited.POST("/batch/scrape", handler.PostBatch(sc, batches, cfg.Batch))
	limited.GET("/batch/:id", handler.GetBatch(batches))

	return r
}
