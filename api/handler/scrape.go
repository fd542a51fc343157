package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricewalk/pricewalk/cache"
	"github.com/pricewalk/pricewalk/models"
)

// ProductScraper runs one listing crawl. *scraper.Scraper satisfies it; the
// handler tests swap in a stub.
type ProductScraper interface {
	Scrape(ctx context.Context, listingURL string, maxPages int) ([]models.Product, error)
}

// Scrape returns a handler for POST /scrape.
//
// Flow:
//  1. Parse & validate request, apply the boundary default (maxPages 3).
//  2. Cache lookup when the request opted in via maxAge.
//  3. Scraper.Scrape → aggregated products (partial results count as success).
//  4. Cache store, respond 200.
func Scrape(sc ProductScraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid request body",
				Message: err.Error(),
			})
			return
		}
		if req.URL == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "URL is required",
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, req.MaxPages)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				c.JSON(http.StatusOK, cached)
				return
			}
		}

		// ── 3. Scrape ───────────────────────────────────────────────
		products, err := sc.Scrape(c.Request.Context(), req.URL, req.MaxPages)
		if err != nil {
			respondError(c, err)
			return
		}
		if products == nil {
			products = []models.Product{}
		}

		resp := &models.ScrapeResponse{
			Success:       true,
			TotalProducts: len(products),
			Products:      products,
		}
		slog.Info("scrape completed",
			"url", req.URL,
			"maxPages", req.MaxPages,
			"products", len(products),
			"total_ms", time.Since(start).Milliseconds(),
		)

		// ── 4. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the right HTTP status and writes the
// {error, message} body. Everything escaping the scraper is a top-level
// failure: invalid input aside, that means 500.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	status := http.StatusInternalServerError
	if scrapeErr.Code == models.ErrCodeInvalidInput {
		status = http.StatusBadRequest
	}

	c.JSON(status, models.ErrorResponse{
		Error:   "Scraping failed",
		Message: scrapeErr.Message,
	})
}
