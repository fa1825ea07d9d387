package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/use-agent/rivalscope/config"
	"github.com/use-agent/rivalscope/models"
)

// BatchStore holds in-flight and completed batch jobs. Finished jobs are
// dropped once older than the configured TTL.
type BatchStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.BatchJob
	ttl  time.Duration
	now  func() time.Time
}

// NewBatchStore creates an empty store.
func NewBatchStore(ttl time.Duration) *BatchStore {
	return &BatchStore{
		jobs: make(map[string]*models.BatchJob),
		ttl:  ttl,
		now:  time.Now,
	}
}

// StartJanitor evicts expired jobs every interval until ctx is done.
func (s *BatchStore) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evict()
			}
		}
	}()
}

func (s *BatchStore) evict() {
	cutoff := s.now().Add(-s.ttl).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.Status != models.BatchProcessing && job.CreatedAt < cutoff {
			delete(s.jobs, id)
		}
	}
}

func (s *BatchStore) put(job *models.BatchJob) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// record stores the response for one URL of a job.
func (s *BatchStore) record(id string, idx int, resp *models.ScrapeResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Results[idx] = resp
		job.Completed++
	}
}

func (s *BatchStore) finish(id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
	}
}

// status returns a copy of the job safe to serialise.
func (s *BatchStore) status(id string) (models.BatchStatusResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.BatchStatusResponse{}, false
	}
	return models.BatchStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Completed: job.Completed,
		Total:     job.Total,
		Results:   append([]*models.ScrapeResponse(nil), job.Results...),
	}, true
}

// PostBatch returns a handler for POST /api/v1/batch/scrape.
// It validates the request, registers a job, and scrapes the URLs in the
// background with bounded concurrency.
func PostBatch(sc Scraper, store *BatchStore, cfg config.BatchConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		if req.Timeout == 0 {
			req.Timeout = 60
		}

		job := &models.BatchJob{
			ID:        "batch-" + uuid.NewString(),
			Status:    models.BatchProcessing,
			Total:     len(req.URLs),
			Results:   make([]*models.ScrapeResponse, len(req.URLs)),
			CreatedAt: time.Now().Unix(),
		}
		store.put(job)

		// Detached from the request: the job outlives it.
		go runBatch(context.WithoutCancel(c.Request.Context()), sc, store, job.ID, req, cfg.Concurrency)

		c.JSON(http.StatusAccepted, models.BatchResponse{
			ID:     job.ID,
			Status: models.BatchProcessing,
			Total:  job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(store *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, ok := store.status(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// runBatch scrapes every URL of a job, at most concurrency at a time.
func runBatch(ctx context.Context, sc Scraper, store *BatchStore, id string, req models.BatchRequest, concurrency int) {
	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))

	var (
		mu     sync.Mutex
		failed int
	)
	for i, rawURL := range req.URLs {
		g.Go(func() error {
			resp := scrapeOne(ctx, sc, rawURL, req.MaxPages, time.Duration(req.Timeout)*time.Second)
			store.record(id, i, resp)
			if !resp.Success {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	status := models.BatchCompleted
	switch {
	case failed == len(req.URLs):
		status = models.BatchFailed
	case failed > 0:
		status = models.BatchPartial
	}
	store.finish(id, status)

	slog.Info("batch job finished",
		"id", id,
		"status", status,
		"failed", failed,
		"total", len(req.URLs),
	)
}

// scrapeOne performs a single scrape for one URL of a batch.
func scrapeOne(ctx context.Context, sc Scraper, targetURL string, maxPages int, timeout time.Duration) *models.ScrapeResponse {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := sc.Scrape(ctx, targetURL, maxPages)
	if err != nil {
		return &models.ScrapeResponse{
			Success: false,
			URL:     targetURL,
			Error:   asScrapeError(err).ToDetail(),
		}
	}
	return &models.ScrapeResponse{Success: true, URL: targetURL, Data: result}
}
