// Package catalog holds the product prices and the demo links shown when a
// stored page has none.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

const (
	DefaultProduct  = "linkpage"
	defaultCurrency = "usd"
)

type Product struct {
	Kind     string `json:"productKind"`
	WebPrice int64  `json:"webPrice"`
	AppPrice int64  `json:"appPrice"`
	Currency string `json:"currency"`
}

// Discount is what buying through the app saves.
func (p Product) Discount() int64 {
	if d := p.WebPrice - p.AppPrice; d > 0 {
		return d
	}
	return 0
}

// Catalog is immutable once built.
type Catalog struct {
	products  map[string]Product
	demoLinks []domain.LinkRecord
}

var defaultDemoLinks = []domain.LinkRecord{
	{Title: "Planet Nine", URL: "https://www.planetnine.app"},
	{Title: "Make your own link page", URL: "https://linkityl.ink"},
	{Title: "Sessionless", URL: "https://github.com/planet-nine-app/sessionless"},
	{Title: "GitHub", URL: "https://github.com/planet-nine-app", IsSocial: true},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		products: map[string]Product{
			DefaultProduct: {Kind: DefaultProduct, WebPrice: 2000, AppPrice: 1500, Currency: defaultCurrency},
		},
		demoLinks: append([]domain.LinkRecord(nil), defaultDemoLinks...),
	}
}

// Load builds a catalog from path, or returns the defaults when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	return Build(cfg)
}

// Build validates cfg and layers it over the defaults.
func Build(cfg FileConfig) (*Catalog, error) {
	c := Default()

	for kind, p := range cfg.Products {
		kind = strings.TrimSpace(kind)
		if kind == "" {
			return nil, fmt.Errorf("catalog: product with empty kind")
		}
		if p.WebPrice < 0 || p.AppPrice < 0 {
			return nil, fmt.Errorf("catalog: product %s has a negative price", kind)
		}
		currency := strings.ToLower(strings.TrimSpace(p.Currency))
		if currency == "" {
			currency = defaultCurrency
		}
		c.products[kind] = Product{Kind: kind, WebPrice: p.WebPrice, AppPrice: p.AppPrice, Currency: currency}
	}

	if len(cfg.DemoLinks) > 0 {
		links := make([]domain.LinkRecord, 0, len(cfg.DemoLinks))
		for _, l := range cfg.DemoLinks {
			if l.URL == "" {
				continue
			}
			links = append(links, l)
		}
		if len(links) > 0 {
			c.demoLinks = domain.TruncateLinks(links)
		}
	}

	return c, nil
}

// Product looks up a product kind. An empty kind means the default product.
func (c *Catalog) Product(kind string) (Product, bool) {
	if kind == "" {
		kind = DefaultProduct
	}
	p, ok := c.products[kind]
	return p, ok
}

// Kinds lists the known product kinds, sorted.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.products))
	for k := range c.products {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// DemoLinks returns a copy of the fallback links.
func (c *Catalog) DemoLinks() []domain.LinkRecord {
	return append([]domain.LinkRecord(nil), c.demoLinks...)
}
