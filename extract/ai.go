package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/pricewalk/pricewalk/llm"
	"github.com/pricewalk/pricewalk/models"
)

// Completer is the extraction-service surface the AI extractor needs.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AIExtractor asks the extraction service for structured products. Every
// failure mode (transport, non-2xx, missing JSON, wrong shape) is absorbed
// and logged; callers only ever see an empty result.
type AIExtractor struct {
	client Completer
}

// NewAIExtractor creates an AIExtractor backed by the given client.
func NewAIExtractor(client Completer) *AIExtractor {
	return &AIExtractor{client: client}
}

func (e *AIExtractor) Name() string { return "ai" }

// productsPayload is the JSON shape the listing prompt demands.
type productsPayload struct {
	Products []models.Product `json:"products"`
}

// descriptionPayload is the JSON shape the detail prompt demands.
type descriptionPayload struct {
	Description string `json:"description"`
}

// Products sends a bounded prefix of the listing HTML to the extraction
// service and parses a product array out of the model's free-text answer.
func (e *AIExtractor) Products(ctx context.Context, src Source) []models.Product {
	system := listingPrompt(baseOrigin(src.URL))
	user := PromptHTML(src.HTML)
	slog.Debug("ai listing extraction",
		"url", src.URL, "prompt_tokens_est", llm.EstimateTokens(system)+llm.EstimateTokens(user))

	raw, err := e.client.Complete(ctx, system, user)
	if err != nil {
		slog.Warn("ai listing extraction failed", "url", src.URL, "error", err)
		return nil
	}

	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		slog.Warn("ai listing response carried no JSON object", "url", src.URL)
		return nil
	}

	var payload productsPayload
	if err := json.Unmarshal(obj, &payload); err != nil {
		slog.Warn("ai listing response had unexpected shape", "url", src.URL, "error", err)
		return nil
	}
	return payload.Products
}

// Description sends a bounded prefix of the detail-page HTML to the
// extraction service and parses a description string out of the answer.
// The sentinel is passed through; acceptance is the caller's policy.
func (e *AIExtractor) Description(ctx context.Context, src Source) string {
	raw, err := e.client.Complete(ctx, detailPrompt, PromptHTML(src.HTML))
	if err != nil {
		slog.Warn("ai description extraction failed", "url", src.URL, "error", err)
		return ""
	}

	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		slog.Warn("ai description response carried no JSON object", "url", src.URL)
		return ""
	}

	var payload descriptionPayload
	if err := json.Unmarshal(obj, &payload); err != nil {
		slog.Warn("ai description response had unexpected shape", "url", src.URL, "error", err)
		return ""
	}
	return strings.TrimSpace(payload.Description)
}

// listingPrompt is the fixed instruction for listing pages. baseOrigin
// anchors the model's relative-URL completion.
func listingPrompt(baseOrigin string) string {
	return fmt.Sprintf(`You are a product listing extraction engine. Extract every product offered for sale in the HTML the user provides.

Respond with a single JSON object, no explanation, of this exact shape:
{"products": [{"name": "...", "price": "...", "link": "...", "imageUrl": "..."}]}

Rules:
- Use "-" for any field that cannot be resolved.
- link and imageUrl must be absolute URLs; resolve relative paths against %s.
- Keep price exactly as displayed, currency symbol included.
- Skip advertisements and "Shop on eBay" style filler cards.
- Return {"products": []} when the page lists no products.`, baseOrigin)
}

// detailPrompt is the fixed instruction for product detail pages.
const detailPrompt = `You are a product page extraction engine. Extract the product description from the HTML the user provides.

Respond with a single JSON object, no explanation, of this exact shape:
{"description": "..."}

Rules:
- Return the seller's description text; do not invent details.
- Use "-" when the page carries no description.`

// baseOrigin reduces a page URL to scheme://host for the prompt's
// URL-completion rule. Unparsable URLs pass through untouched.
func baseOrigin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return pageURL
	}
	return u.Scheme + "://" + u.Host
}
