package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/rivalscope/models"
)

// Scraper is the engine the handlers drive.
type Scraper interface {
	Scrape(ctx context.Context, seedURL string, maxPages int) (*models.ScrapedResult, error)
	Stats() models.FetcherStats
	Uptime() time.Duration
}

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Scraper.Scrape under the request timeout.
//  3. Map a ScrapeError to its status, or return the result.
func Scrape(sc Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				URL:     req.URL,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Scrape ───────────────────────────────────────────────
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(req.Timeout)*time.Second)
		defer cancel()

		result, err := sc.Scrape(ctx, req.URL, req.MaxPages)
		if err != nil {
			respondError(c, req.URL, err)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: true,
			URL:     req.URL,
			Data:    result,
		})
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, url string, err error) {
	scrapeErr := asScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		URL:     url,
		Error:   scrapeErr.ToDetail(),
	})
}

func asScrapeError(err error) *models.ScrapeError {
	var scrapeErr *models.ScrapeError
	if errors.As(err, &scrapeErr) {
		return scrapeErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, "scrape timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeInternal, "internal error", err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeFetchFailed:
		return http.StatusBadGateway // 502
	case models.ErrCodeParseFailed:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	default:
		return http.StatusInternalServerError // 500
	}
}
