package extract

import (
	"net/url"
	"strings"

	"github.com/pricewalk/pricewalk/models"
)

// NormalizeProduct completes relative link/image URLs against base and fills
// empty fields with the sentinel. It never rejects a product, only repairs
// its fields.
func NormalizeProduct(p models.Product, base *url.URL) models.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = strings.TrimSpace(p.Price)
	p.Link = absoluteURL(p.Link, base)
	p.ImageURL = absoluteURL(p.ImageURL, base)
	p.Description = strings.TrimSpace(p.Description)
	p.FillDefaults()
	return p
}

// absoluteURL resolves ref against base. Already-absolute http(s) URLs pass
// through unchanged; anything that cannot become one (javascript:, data:,
// unparsable refs) collapses to the sentinel so the link invariant holds.
func absoluteURL(ref string, base *url.URL) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == models.Sentinel {
		return models.Sentinel
	}

	var resolved *url.URL
	var err error
	if base != nil {
		resolved, err = base.Parse(ref)
	} else {
		resolved, err = url.Parse(ref)
	}
	if err != nil {
		return models.Sentinel
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return models.Sentinel
	}
	return resolved.String()
}
