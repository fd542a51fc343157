package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricewalk/pricewalk/models"
)

// version is the service version reported by the health endpoint.
const version = "0.1.0"

// ScrapeCounter reports how many scrape calls are currently holding a
// browser. *scraper.Scraper satisfies it.
type ScrapeCounter interface {
	ActiveScrapes() int64
}

// Health returns a handler for GET /health.
//
// Status degrades when every scrape slot is busy: new requests will queue
// behind the concurrency cap instead of starting immediately.
func Health(sc ScrapeCounter, maxSessions int, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := sc.ActiveScrapes()

		status := "healthy"
		if maxSessions > 0 && active >= int64(maxSessions) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        status,
			Uptime:        time.Since(startTime).Round(time.Second).String(),
			Version:       version,
			ActiveScrapes: active,
		})
	}
}
