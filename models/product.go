package models

// Sentinel is the placeholder value for any product field that could not be
// resolved. Fields are never empty or null on the wire.
const Sentinel = "-"

// Product is one extracted listing entry.
type Product struct {
	// Name is the product title as shown on the listing card.
	Name string `json:"name"`

	// Price is the displayed price string, currency symbol included.
	Price string `json:"price"`

	// Link is the absolute URL of the product's detail page, or the sentinel.
	Link string `json:"link"`

	// ImageURL is the absolute URL of the product's primary image, or the sentinel.
	ImageURL string `json:"imageUrl"`

	// Description is filled in from the detail page after listing extraction.
	Description string `json:"description"`
}

// NewProduct returns a Product with every field set to the sentinel.
func NewProduct() Product {
	return Product{
		Name:        Sentinel,
		Price:       Sentinel,
		Link:        Sentinel,
		ImageURL:    Sentinel,
		Description: Sentinel,
	}
}

// FillDefaults replaces empty or whitespace-only fields with the sentinel.
func (p *Product) FillDefaults() {
	for _, f := range []*string{&p.Name, &p.Price, &p.Link, &p.ImageURL, &p.Description} {
		if isBlank(*f) {
			*f = Sentinel
		}
	}
}

// HasLink reports whether the product carries a usable detail-page link.
func (p *Product) HasLink() bool {
	return p.Link != "" && p.Link != Sentinel
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
