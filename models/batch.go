package models

// BatchRequest is the payload for POST /api/v1/batch/scrape.
type BatchRequest struct {
	// URLs is the list of competitor pages to scrape. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100"`

	// MaxPages applies to every URL in the batch.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=0,max=20"`

	// Timeout is the per-URL timeout in seconds.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
}

// BatchResponse is the immediate response for POST /api/v1/batch/scrape.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Results   []*ScrapeResponse `json:"results,omitempty"`
}

// Batch job states.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// BatchJob tracks an in-progress batch scrape operation.
type BatchJob struct {
	ID        string
	Status    string
	Total     int
	Completed int
	Results   []*ScrapeResponse
	CreatedAt int64 // unix timestamp
}
