package scraper

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pricewalk/pricewalk/extract"
	"github.com/pricewalk/pricewalk/models"
)

// pgnMarker is the pagination query parameter rewritten between listing
// pages. URLs that do not carry it load the same page on every iteration,
// which effectively disables pagination for them.
const pgnMarker = "_pgn=1"

// Scrape crawls one paginated listing and returns the aggregated products.
//
// Lifecycle:
//
//	1. Session launch   – one browser per call, released on every exit path
//	2. Page loop        – listing pages 1..maxPages
//	3. Extraction       – two-tier strategy on each rendered page
//	4. Detail sub-loop  – sequential description fetch per linked product
//	5. Delay            – fixed wait before the next listing page
//
// The returned error covers entry failures only (browser launch). Anything
// that goes wrong past that point ends the loop early and yields the
// partial result collected so far instead of an error.
func (s *Scraper) Scrape(ctx context.Context, listingURL string, maxPages int) ([]models.Product, error) {
	if maxPages < 1 {
		maxPages = s.scrapeCfg.DefaultMaxPages
	}

	s.activeScrapes.Add(1)
	defer s.activeScrapes.Add(-1)

	fetcher, release, err := s.openFetcher()
	if err != nil {
		return nil, err
	}
	defer release()

	return s.crawlListing(ctx, fetcher, listingURL, maxPages), nil
}

// openRodFetcher starts the per-call browser session and wraps it in a rod
// fetcher. On acquisition failure the session is released here; otherwise
// the returned release func owns the teardown.
func (s *Scraper) openRodFetcher() (pageFetcher, func(), error) {
	session := NewSession(s.browserCfg)
	browser, err := session.Acquire()
	if err != nil {
		session.Release()
		return nil, nil, err
	}
	return &rodFetcher{browser: browser, cfg: s.scrapeCfg}, session.Release, nil
}

// crawlListing drives the pagination loop over the fetcher seam. Stop
// conditions, in order of precedence: a page fetch error (partial results),
// a page with zero products ("no more pages"), the maxPages cap. Failed
// pages are not retried.
func (s *Scraper) crawlListing(ctx context.Context, f pageFetcher, listingURL string, maxPages int) []models.Product {
	products := make([]models.Product, 0, 16)

	for page := 1; page <= maxPages; page++ {
		target := listingPageURL(listingURL, page)
		slog.Info("scraping listing page", "page", page, "url", target)

		rawHTML, err := f.fetch(ctx, target)
		if err != nil {
			slog.Warn("listing page failed, returning partial results",
				"page", page, "collected", len(products), "error", err)
			break
		}

		batch := s.strategy.Products(ctx, extract.Source{URL: target, HTML: rawHTML})
		if len(batch) == 0 {
			slog.Info("listing page yielded no products, stopping", "page", page)
			break
		}

		// The detail sub-loop is strictly sequential: one in-flight request
		// toward the site at a time, matching the inter-page pacing.
		for i := range batch {
			if batch[i].HasLink() {
				batch[i].Description = s.fetchDescription(ctx, f, batch[i].Link)
			} else {
				batch[i].Description = models.Sentinel
			}
		}

		products = append(products, batch...)
		slog.Info("listing page done",
			"page", page, "products", len(batch), "total", len(products))

		if page < maxPages {
			if err := sleep(ctx, s.scrapeCfg.PageDelay); err != nil {
				slog.Warn("inter-page wait aborted", "error", err)
				break
			}
		}
	}

	return products
}

// listingPageURL rewrites the pagination marker to the given page index.
// The substitution is textual: a URL missing the marker comes back
// unchanged, so every iteration loads the same page.
func listingPageURL(listingURL string, page int) string {
	return strings.Replace(listingURL, pgnMarker, "_pgn="+strconv.Itoa(page), 1)
}
