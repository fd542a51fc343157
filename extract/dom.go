package extract

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"

	"github.com/pricewalk/pricewalk/models"
)

// Candidate selectors, most specific first. The first container selector
// matching at least one element claims the page; field selectors are then
// tried per card in order.
var (
	containerSelectors = compileAll(
		"li.s-item",
		"div.s-item",
		".srp-results li.s-item__pl-on-bottom",
		"[data-listing-id]",
		"li.product",
		".product-card",
	)
	nameSelectors = compileAll(
		".s-item__title",
		"h3.s-item__title",
		"[role=heading]",
		".product-title",
		"h3",
		"h2",
	)
	priceSelectors = compileAll(
		".s-item__price",
		".product-price",
		".price",
		"[class*=price]",
	)
	linkSelectors = compileAll(
		"a.s-item__link",
		"a[href*='/itm/']",
		"a[href]",
	)
	imageSelectors = compileAll(
		".s-item__image img",
		"img.s-item__image-img",
		"img[src]",
		"img",
	)
	descriptionSelectors = compileAll(
		"[data-testid='x-item-description']",
		".x-item-description",
		"#viTabs_0_is",
		"[itemprop=description]",
		"#description",
		".product-description",
	)
)

// placeholderPhrases mark filler cards sites inject between real listings.
// Cards whose name contains one are discarded, lowercased comparison.
var placeholderPhrases = []string{
	"shop on ebay",
}

func compileAll(selectors ...string) []cascadia.Selector {
	out := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, cascadia.MustCompile(s))
	}
	return out
}

// minDescriptionLength is the shortest readability text accepted as a
// product description; below it the algorithm likely grabbed navigation.
const minDescriptionLength = 50

// maxDescriptionLength caps readability fallback text. Selector matches are
// container-bounded already; full-article text is not.
const maxDescriptionLength = 1000

// DOMExtractor recovers product fields with CSS selectors only, no network
// calls. Extraction over an HTML snapshot is pure: the same input always
// yields the same product sequence.
type DOMExtractor struct{}

// NewDOMExtractor creates the selector-fallback extractor.
func NewDOMExtractor() *DOMExtractor {
	return &DOMExtractor{}
}

func (e *DOMExtractor) Name() string { return "selectors" }

// Products walks the first matching container selector's cards and fills
// each field from its own candidate list. Cards that fail individually are
// skipped, never the whole page.
func (e *DOMExtractor) Products(_ context.Context, src Source) []models.Product {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src.HTML))
	if err != nil {
		slog.Warn("selector extraction got unparsable page", "url", src.URL, "error", err)
		return nil
	}

	cards := firstMatch(doc.Selection, containerSelectors)
	if cards == nil {
		return nil
	}

	products := make([]models.Product, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		p := models.NewProduct()
		if name := firstText(card, nameSelectors); name != "" {
			p.Name = name
		}
		if price := firstText(card, priceSelectors); price != "" {
			p.Price = price
		}
		if href := firstAttr(card, linkSelectors, "href"); href != "" {
			p.Link = href
		}
		if img := firstAttr(card, imageSelectors, "src", "data-src"); img != "" {
			p.ImageURL = img
		}
		if placeholderCard(p.Name) {
			return
		}
		products = append(products, p)
	})
	return products
}

// Description tries the known description containers, then hands the page
// to the readability algorithm as a last content-bearing tier.
func (e *DOMExtractor) Description(_ context.Context, src Source) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src.HTML))
	if err != nil {
		return ""
	}
	if text := firstText(doc.Selection, descriptionSelectors); text != "" {
		return text
	}
	return readableExcerpt(src.HTML, src.URL)
}

// placeholderCard reports whether a resolved name marks a non-product
// filler card rather than a real listing.
func placeholderCard(name string) bool {
	if name == models.Sentinel {
		return true
	}
	lower := strings.ToLower(name)
	for _, phrase := range placeholderPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// firstMatch returns the elements of the first selector matching anything,
// or nil when none do.
func firstMatch(root *goquery.Selection, selectors []cascadia.Selector) *goquery.Selection {
	for _, sel := range selectors {
		if m := root.FindMatcher(sel); m.Length() > 0 {
			return m
		}
	}
	return nil
}

// firstText returns the first candidate's trimmed element text.
func firstText(root *goquery.Selection, selectors []cascadia.Selector) string {
	for _, sel := range selectors {
		m := root.FindMatcher(sel).First()
		if m.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(m.Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstAttr returns the first non-empty attribute among attrs on the first
// element each candidate selector matches.
func firstAttr(root *goquery.Selection, selectors []cascadia.Selector, attrs ...string) string {
	for _, sel := range selectors {
		m := root.FindMatcher(sel).First()
		if m.Length() == 0 {
			continue
		}
		for _, attr := range attrs {
			if v, ok := m.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// readableExcerpt runs the readability algorithm over a detail page whose
// description containers all missed. Shops differ wildly; the article
// extractor often still isolates the descriptive body.
func readableExcerpt(rawHTML, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return ""
	}
	if excerpt := strings.TrimSpace(article.Excerpt); excerpt != "" {
		return excerpt
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < minDescriptionLength {
		return ""
	}
	return truncate(text, maxDescriptionLength)
}
