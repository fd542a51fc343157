package scraper

import (
	"context"
	"log/slog"

	"github.com/pricewalk/pricewalk/extract"
	"github.com/pricewalk/pricewalk/models"
)

// fetchDescription loads one product detail page and extracts its
// description through the same two-tier strategy as listing pages, under the
// same timeout and user-agent policy. It never fails outward: any error on
// the way collapses to the sentinel, so a broken detail page cannot abort
// the listing crawl.
func (s *Scraper) fetchDescription(ctx context.Context, f pageFetcher, productURL string) string {
	rawHTML, err := f.fetch(ctx, productURL)
	if err != nil {
		slog.Warn("detail page failed, keeping sentinel description",
			"url", productURL, "error", err)
		return models.Sentinel
	}

	desc := s.strategy.Description(ctx, extract.Source{URL: productURL, HTML: rawHTML})
	if desc == "" {
		return models.Sentinel
	}
	return desc
}
