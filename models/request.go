package models

// DefaultMaxPages is the page cap applied at the HTTP boundary when the
// client does not send one.
const DefaultMaxPages = 3

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	// URL is the listing page to crawl. Required. Validated by the handler
	// rather than a binding tag so a missing value gets its own message.
	URL string `json:"url"`

	// MaxPages caps how many listing pages are visited. Default: 3.
	MaxPages int `json:"maxPages,omitempty" binding:"omitempty,min=1"`

	// MaxAge opts into response caching. A cached result younger than
	// MaxAge milliseconds is returned without touching the browser.
	// Zero or absent disables caching for the request.
	MaxAge int `json:"maxAge,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.MaxPages == 0 {
		r.MaxPages = DefaultMaxPages
	}
}
