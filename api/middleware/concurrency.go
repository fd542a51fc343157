package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/pricewalk/pricewalk/models"
)

// ConcurrencyCap returns middleware bounding how many scrape requests run
// at once. Every admitted request launches its own browser session, so the
// cap is what keeps N concurrent clients from spawning N Chrome processes.
//
// Excess requests wait for a slot instead of being rejected; the wait ends
// early only when the client gives up (closed connection or request
// deadline), which surfaces as 503.
//
// maxConcurrent <= 0 disables the cap.
func ConcurrencyCap(maxConcurrent int) gin.HandlerFunc {
	if maxConcurrent <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))

	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "Server busy",
				Message: "request canceled while waiting for a scrape slot",
			})
			return
		}
		defer sem.Release(1)

		c.Next()
	}
}
