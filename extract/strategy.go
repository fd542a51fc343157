package extract

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/pricewalk/pricewalk/models"
)

// Source is one rendered page handed to an extractor.
type Source struct {
	// URL is the page address, used as the base for resolving relative links.
	URL string

	// HTML is the rendered document.
	HTML string
}

// Extractor produces products or a description from one rendered page.
// Implementations absorb their own failures: callers always receive a
// well-formed, possibly empty, value.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Products extracts partial products (no description) from a listing page.
	Products(ctx context.Context, src Source) []models.Product

	// Description extracts a product description from a detail page.
	// Returns "" when nothing usable was found.
	Description(ctx context.Context, src Source) string
}

// Strategy picks between AI extraction and selector fallback. AI is tried
// first whenever the extraction service is configured; the first tier that
// yields a non-empty result wins. Results from the two tiers are never
// merged within one page.
type Strategy struct {
	ai       Extractor // nil when the extraction service is not configured
	fallback Extractor
}

// NewStrategy builds a Strategy. ai may be nil, in which case every page
// goes straight to the fallback extractor.
func NewStrategy(ai, fallback Extractor) *Strategy {
	return &Strategy{ai: ai, fallback: fallback}
}

// Products runs the two-tier policy on a listing page and normalizes the
// winning tier's output into the uniform product shape: relative links and
// image paths are completed against the page URL and empty fields become
// the sentinel.
func (s *Strategy) Products(ctx context.Context, src Source) []models.Product {
	products := s.tierProducts(ctx, src)

	base, err := url.Parse(src.URL)
	if err != nil {
		base = nil
	}
	for i := range products {
		products[i] = NormalizeProduct(products[i], base)
	}
	return products
}

func (s *Strategy) tierProducts(ctx context.Context, src Source) []models.Product {
	if s.ai != nil {
		if products := s.ai.Products(ctx, src); len(products) > 0 {
			return products
		}
		slog.Debug("ai extraction yielded nothing, using fallback",
			"url", src.URL, "fallback", s.fallback.Name())
	}
	return s.fallback.Products(ctx, src)
}

// Description runs the two-tier policy on a detail page. An AI answer is
// accepted only when it is non-empty and not the sentinel.
func (s *Strategy) Description(ctx context.Context, src Source) string {
	if s.ai != nil {
		if d := s.ai.Description(ctx, src); d != "" && d != models.Sentinel {
			return d
		}
		slog.Debug("ai description yielded nothing, using fallback", "url", src.URL)
	}
	return s.fallback.Description(ctx, src)
}
