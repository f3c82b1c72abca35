package catalog

import "github.com/planet-nine-app/linkitylink/internal/domain"

// ProductEntry is one product in catalog.yaml.
type ProductEntry struct {
	WebPrice int64  `yaml:"webPrice"`
	AppPrice int64  `yaml:"appPrice"`
	Currency string `yaml:"currency"`
}

// FileConfig is the root structure of catalog.yaml:
//
//	products:
//	  linkpage: { webPrice: 2000, appPrice: 1500, currency: usd }
//	demoLinks:
//	  - { title: GitHub, url: https://github.com, isSocial: true }
type FileConfig struct {
	Products  map[string]ProductEntry `yaml:"products"`
	DemoLinks []domain.LinkRecord     `yaml:"demoLinks"`
}
