package models

// ScrapeResponse is the response for POST /scrape.
type ScrapeResponse struct {
	// Success indicates whether the scrape completed without a fatal error.
	Success bool `json:"success"`

	// TotalProducts is the number of entries in Products.
	TotalProducts int `json:"totalProducts"`

	// Products is the aggregated result across all visited pages.
	// Always present, possibly empty, never null.
	Products []Product `json:"products"`
}

// ErrorResponse is the body returned with 4xx/5xx statuses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status        string `json:"status"` // "healthy" or "degraded"
	Uptime        string `json:"uptime"`
	Version       string `json:"version"`
	ActiveScrapes int64  `json:"active_scrapes"`
}
