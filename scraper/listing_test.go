package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pricewalk/pricewalk/config"
	"github.com/pricewalk/pricewalk/extract"
	"github.com/pricewalk/pricewalk/models"
)

// scriptedFetcher serves canned HTML per URL and records every fetch in
// order.
type scriptedFetcher struct {
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *scriptedFetcher) fetch(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	if err, ok := f.errs[pageURL]; ok {
		return "", err
	}
	page, ok := f.pages[pageURL]
	if !ok {
		return "", models.NewScrapeError(models.ErrCodeNavigation, "no page scripted for "+pageURL, nil)
	}
	return page, nil
}

func testScraper(cfg config.ScraperConfig) *Scraper {
	return NewScraper(config.BrowserConfig{}, cfg, extract.NewStrategy(nil, extract.NewDOMExtractor()))
}

// listingPage renders linked product cards for the given ids.
func listingPage(ids ...int) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="srp-results">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<li class="s-item">`+
			`<a class="s-item__link" href="/itm/%d"><div class="s-item__title">Item %d</div></a>`+
			`<span class="s-item__price">$%d.00</span>`+
			`<div class="s-item__image"><img src="https://cdn.example/%d.jpg"></div>`+
			`</li>`, id, id, id, id)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// bareListingPage renders product cards without links.
func bareListingPage(names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="srp-results">`)
	for _, n := range names {
		fmt.Fprintf(&b, `<li class="s-item"><div class="s-item__title">%s</div><span class="s-item__price">$5.00</span></li>`, n)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func detailPage(text string) string {
	return `<html><body><div class="product-description">` + text + `</div></body></html>`
}

const emptyListing = `<html><body><p>No results found</p></body></html>`

const searchURL = "https://shop.example/sch/i.html?_nkw=camera&_pgn=1"

func TestCrawlListingAggregatesPagesAndDetails(t *testing.T) {
	f := &scriptedFetcher{pages: map[string]string{
		searchURL: listingPage(1, 2),
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=2": listingPage(3),
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=3": emptyListing,
		"https://shop.example/itm/1":                         detailPage("Description 1."),
		"https://shop.example/itm/2":                         detailPage("Description 2."),
		"https://shop.example/itm/3":                         detailPage("Description 3."),
	}}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})

	got := s.crawlListing(context.Background(), f, searchURL, 5)

	want := []models.Product{
		{Name: "Item 1", Price: "$1.00", Link: "https://shop.example/itm/1", ImageURL: "https://cdn.example/1.jpg", Description: "Description 1."},
		{Name: "Item 2", Price: "$2.00", Link: "https://shop.example/itm/2", ImageURL: "https://cdn.example/2.jpg", Description: "Description 2."},
		{Name: "Item 3", Price: "$3.00", Link: "https://shop.example/itm/3", ImageURL: "https://cdn.example/3.jpg", Description: "Description 3."},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d products, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("product %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Listing pages and detail pages interleave; the empty third page ends
	// the crawl before the page cap does.
	wantCalls := []string{
		searchURL,
		"https://shop.example/itm/1",
		"https://shop.example/itm/2",
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=2",
		"https://shop.example/itm/3",
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=3",
	}
	if len(f.calls) != len(wantCalls) {
		t.Fatalf("fetch calls = %v, want %v", f.calls, wantCalls)
	}
	for i := range wantCalls {
		if f.calls[i] != wantCalls[i] {
			t.Errorf("call %d = %q, want %q", i, f.calls[i], wantCalls[i])
		}
	}
}

func TestCrawlListingHonorsPageCap(t *testing.T) {
	f := &scriptedFetcher{pages: map[string]string{
		searchURL: bareListingPage("A"),
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=2": bareListingPage("B"),
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=3": bareListingPage("C"),
	}}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})

	got := s.crawlListing(context.Background(), f, searchURL, 2)

	if len(got) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(got), got)
	}
	if len(f.calls) != 2 {
		t.Fatalf("fetched %d pages, want 2 (no detail fetches for linkless cards): %v", len(f.calls), f.calls)
	}
	for i, p := range got {
		if p.Description != models.Sentinel {
			t.Errorf("product %d description = %q, want sentinel for a linkless card", i, p.Description)
		}
	}
}

func TestCrawlListingPartialResultsOnPageError(t *testing.T) {
	f := &scriptedFetcher{
		pages: map[string]string{
			searchURL:                    listingPage(1),
			"https://shop.example/itm/1": detailPage("Only one."),
			"https://shop.example/sch/i.html?_nkw=camera&_pgn=3": listingPage(9),
		},
		errs: map[string]error{
			"https://shop.example/sch/i.html?_nkw=camera&_pgn=2": models.NewScrapeError(models.ErrCodeTimeout, "nav timeout", nil),
		},
	}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})

	got := s.crawlListing(context.Background(), f, searchURL, 3)

	if len(got) != 1 {
		t.Fatalf("got %d products, want the single page-1 product: %+v", len(got), got)
	}
	if got[0].Description != "Only one." {
		t.Errorf("description = %q, want %q", got[0].Description, "Only one.")
	}
	for _, call := range f.calls {
		if strings.Contains(call, "_pgn=3") {
			t.Error("crawl continued past the failed page")
		}
	}
}

func TestCrawlListingDetailFailureKeepsSentinel(t *testing.T) {
	f := &scriptedFetcher{
		pages: map[string]string{
			searchURL:                    listingPage(1, 2),
			"https://shop.example/itm/2": detailPage("Survived."),
		},
		errs: map[string]error{
			"https://shop.example/itm/1": models.NewScrapeError(models.ErrCodeNavigation, "detail blocked", nil),
		},
	}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})

	got := s.crawlListing(context.Background(), f, searchURL, 1)

	if len(got) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(got), got)
	}
	if got[0].Description != models.Sentinel {
		t.Errorf("product 0 description = %q, want sentinel after a failed detail page", got[0].Description)
	}
	if got[1].Description != "Survived." {
		t.Errorf("product 1 description = %q, want %q", got[1].Description, "Survived.")
	}
}

func TestCrawlListingStopsWhenContextCanceledDuringDelay(t *testing.T) {
	f := &scriptedFetcher{pages: map[string]string{
		searchURL: bareListingPage("A"),
		"https://shop.example/sch/i.html?_nkw=camera&_pgn=2": bareListingPage("B"),
	}}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5, PageDelay: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := s.crawlListing(ctx, f, searchURL, 2)

	if len(got) != 1 {
		t.Fatalf("got %d products, want only page 1 before the canceled delay: %+v", len(got), got)
	}
	if len(f.calls) != 1 {
		t.Errorf("fetched %d pages, want 1: %v", len(f.calls), f.calls)
	}
}

func TestScrapeDefaultsMaxPages(t *testing.T) {
	pages := map[string]string{searchURL: bareListingPage("A")}
	for i := 2; i <= 6; i++ {
		pages[fmt.Sprintf("https://shop.example/sch/i.html?_nkw=camera&_pgn=%d", i)] = bareListingPage("A")
	}
	f := &scriptedFetcher{pages: pages}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})
	s.openFetcher = func() (pageFetcher, func(), error) { return f, func() {}, nil }

	got, err := s.Scrape(context.Background(), searchURL, 0)
	if err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	// Page 6 is scripted but must never be reached: a non-positive maxPages
	// falls back to the configured default of 5.
	if len(f.calls) != 5 {
		t.Fatalf("fetched %d pages for maxPages 0, want the default 5: %v", len(f.calls), f.calls)
	}
	if last := f.calls[len(f.calls)-1]; !strings.Contains(last, "_pgn=5") {
		t.Errorf("last page fetched = %q, want page 5", last)
	}
	if len(got) != 5 {
		t.Errorf("got %d products, want one per crawled page", len(got))
	}
}

func TestScrapeLaunchFailureSurfacesError(t *testing.T) {
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})
	s.openFetcher = func() (pageFetcher, func(), error) {
		return nil, nil, models.NewScrapeError(models.ErrCodeBrowser, "failed to launch browser", nil)
	}

	got, err := s.Scrape(context.Background(), searchURL, 3)
	if err == nil {
		t.Fatal("Scrape returned nil error for a failed browser launch")
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeBrowser {
		t.Errorf("error = %v, want code %s", err, models.ErrCodeBrowser)
	}
	if got != nil {
		t.Errorf("products = %+v, want nil on an entry failure", got)
	}
	if n := s.ActiveScrapes(); n != 0 {
		t.Errorf("active scrapes after the failure = %d, want 0", n)
	}
}

func TestScrapeReleasesFetcherAndTracksActiveScrapes(t *testing.T) {
	f := &scriptedFetcher{pages: map[string]string{searchURL: emptyListing}}
	s := testScraper(config.ScraperConfig{DefaultMaxPages: 5})

	var during int64
	released := false
	s.openFetcher = func() (pageFetcher, func(), error) {
		during = s.ActiveScrapes()
		return f, func() { released = true }, nil
	}

	if _, err := s.Scrape(context.Background(), searchURL, 1); err != nil {
		t.Fatalf("Scrape returned error: %v", err)
	}
	if during != 1 {
		t.Errorf("active scrapes during the call = %d, want 1", during)
	}
	if !released {
		t.Error("fetcher release never ran")
	}
	if n := s.ActiveScrapes(); n != 0 {
		t.Errorf("active scrapes after the call = %d, want 0", n)
	}
}

func TestListingPageURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		page int
		want string
	}{
		{
			name: "marker rewritten to the page index",
			url:  "https://shop.example/sch/i.html?_nkw=camera&_pgn=1",
			page: 3,
			want: "https://shop.example/sch/i.html?_nkw=camera&_pgn=3",
		},
		{
			name: "page one leaves the URL unchanged",
			url:  "https://shop.example/sch/i.html?_pgn=1",
			page: 1,
			want: "https://shop.example/sch/i.html?_pgn=1",
		},
		{
			name: "marker mid-query keeps the tail",
			url:  "https://shop.example/sch/i.html?_pgn=1&rt=nc",
			page: 12,
			want: "https://shop.example/sch/i.html?_pgn=12&rt=nc",
		},
		{
			name: "URL without marker is untouched",
			url:  "https://shop.example/catalog?page=1",
			page: 4,
			want: "https://shop.example/catalog?page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listingPageURL(tt.url, tt.page); got != tt.want {
				t.Errorf("listingPageURL(%q, %d) = %q, want %q", tt.url, tt.page, got, tt.want)
			}
		})
	}
}
