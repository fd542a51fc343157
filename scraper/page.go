package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/pricewalk/pricewalk/config"
	"github.com/pricewalk/pricewalk/models"
)

// desktopUA is the fixed user agent presented on every page.
const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// pageFetcher retrieves the rendered HTML of one page. The pagination loop
// and the detail fetcher depend on this seam rather than on rod directly.
type pageFetcher interface {
	fetch(ctx context.Context, pageURL string) (string, error)
}

// rodFetcher renders pages through a live browser session.
type rodFetcher struct {
	browser *rod.Browser
	cfg     config.ScraperConfig
}

// fetch opens a fresh page context, navigates under the configured deadline,
// waits for the network to go idle plus the settle delay, and returns the
// rendered HTML. The page context is always closed before returning,
// whichever path exits.
//
// Ordering constraints:
//   - stealth JS and the user-agent override must be installed before
//     Navigate or they miss the navigation;
//   - the idle listener must be registered before Navigate or in-flight
//     requests are missed and the wait returns instantly;
//   - the hijack router uses the same CDP Fetch domain as WaitRequestIdle,
//     so with resource blocking enabled the wait falls back to DOM
//     stability.
func (f *rodFetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeBrowser, "failed to open page", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("page close failed", "url", pageURL, "error", closeErr)
		}
	}()

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without it", "error", evalErr)
	}
	if uaErr := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: desktopUA}); uaErr != nil {
		slog.Warn("user agent override failed", "error", uaErr)
	}
	setExtraHeaders(page, pageURL)

	router := setupHijack(page, f.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	var waitIdle func()
	if router == nil {
		waitIdle = p.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if navErr := p.Navigate(pageURL); navErr != nil {
		return "", categorizeError(navErr, "navigation failed")
	}

	if waitIdle != nil {
		waitIdle()
	} else if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("DOM did not stabilize, reading current content",
			"url", pageURL, "error", stableErr)
	}

	if waitErr := sleep(navCtx, f.cfg.SettleDelay); waitErr != nil {
		return "", categorizeError(waitErr, "settle wait aborted")
	}

	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return "", categorizeError(htmlErr, "failed to read page HTML")
	}
	return rawHTML, nil
}

// setExtraHeaders attaches a search referer and language header to every
// request the page makes.
func setExtraHeaders(page *rod.Page, pageURL string) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	headers := map[string]string{
		"Referer":         "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()),
		"Accept-Language": "en-US,en;q=0.9",
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(headers),
	}.Call(page)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// distinguish deadline exhaustion from navigation failure.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "scrape canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
