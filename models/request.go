package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the competitor page to analyse. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxPages bounds how many related pages (pricing, plans, offers...)
	// are fetched in addition to the seed. Zero uses the server default.
	MaxPages int `json:"max_pages,omitempty" binding:"omitempty,min=0,max=20"`

	// Timeout is the maximum duration in seconds for the entire scrape.
	// Default: 60. Max: 300.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=300"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 60
	}
}
