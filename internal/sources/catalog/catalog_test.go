package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()

	p, ok := c.Product("")
	if !ok {
		t.Fatal("default product missing")
	}
	if p.WebPrice != 2000 || p.AppPrice != 1500 || p.Currency != "usd" {
		t.Errorf("default product = %+v", p)
	}
	if p.Discount() != 500 {
		t.Errorf("Discount() = %d, want 500", p.Discount())
	}
	if len(c.DemoLinks()) == 0 {
		t.Error("default catalog should carry demo links")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
products:
  linkpage:
    webPrice: 2500
    appPrice: 2000
  premium:
    webPrice: ${LINKITYLINK_TEST_PREMIUM_PRICE}
    appPrice: 3000
    currency: EUR
demoLinks:
  - title: Example
    url: https://example.com
  - title: No URL
  - title: GitHub
    url: https://github.com/example
    isSocial: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	t.Setenv("LINKITYLINK_TEST_PREMIUM_PRICE", "4000")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	lp, _ := c.Product("linkpage")
	if lp.WebPrice != 2500 || lp.Currency != "usd" {
		t.Errorf("linkpage = %+v, want overridden price with default currency", lp)
	}

	premium, ok := c.Product("premium")
	if !ok {
		t.Fatal("premium product missing")
	}
	if premium.WebPrice != 4000 || premium.Currency != "eur" {
		t.Errorf("premium = %+v, want expanded price and lowercased currency", premium)
	}

	demo := c.DemoLinks()
	if len(demo) != 2 {
		t.Fatalf("DemoLinks() = %d links, want 2 (entries without url dropped)", len(demo))
	}
	if !demo[1].IsSocial {
		t.Error("isSocial should be read from yaml")
	}

	if got := c.Kinds(); len(got) != 2 || got[0] != "linkpage" || got[1] != "premium" {
		t.Errorf("Kinds() = %v", got)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if _, ok := c.Product(DefaultProduct); !ok {
		t.Error("empty path should yield the defaults")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "negative price", content: "products:\n  bad:\n    webPrice: -1\n"},
		{name: "invalid yaml", content: "products: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestUnknownProduct(t *testing.T) {
	if _, ok := Default().Product("nope"); ok {
		t.Error("unknown product kind should not resolve")
	}
}
