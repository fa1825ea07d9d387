package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/rivalscope/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports the fetcher's shared state; status degrades when no fetch engine
// is configured.
func Health(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()

		status := "healthy"
		if len(stats.Engines) == 0 {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       sc.Uptime().Round(time.Second).String(),
			FetcherStats: stats,
			Version:      Version,
		})
	}
}
