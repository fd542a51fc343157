package scraper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pricewalk/pricewalk/config"
	"github.com/pricewalk/pricewalk/extract"
)

// Scraper orchestrates listing crawls. It holds no browser itself: every
// scrape call runs inside its own short-lived Session, so the struct is safe
// for concurrent use.
type Scraper struct {
	browserCfg config.BrowserConfig
	scrapeCfg  config.ScraperConfig
	strategy   *extract.Strategy

	// openFetcher builds the per-call page fetcher and the release of its
	// underlying resources. Tests swap it to drive Scrape without a browser.
	openFetcher func() (pageFetcher, func(), error)

	activeScrapes atomic.Int64
}

// NewScraper wires the extraction strategy and the browser/pagination
// policy. No browser is launched until the first scrape call.
func NewScraper(browserCfg config.BrowserConfig, scrapeCfg config.ScraperConfig, strategy *extract.Strategy) *Scraper {
	s := &Scraper{
		browserCfg: browserCfg,
		scrapeCfg:  scrapeCfg,
		strategy:   strategy,
	}
	s.openFetcher = s.openRodFetcher
	return s
}

// ActiveScrapes reports how many scrape calls are currently running.
func (s *Scraper) ActiveScrapes() int64 {
	return s.activeScrapes.Load()
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
