package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// ProductRecord is the result of one successful scrape
type ProductRecord struct {
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	DisplayPrice string          `json:"display_price"`
	ImageURL     string          `json:"image_url,omitempty"`
	SourceURL    string          `json:"url"`
	Currency     string          `json:"currency_detected"`
}

// Scraper retrieves a single product page and returns a normalized record
type Scraper interface {
	ScrapeProduct(ctx context.Context, url string) (*ProductRecord, error)
}

// Document is the query capability the extractor needs from a parsed page.
// *goquery.Document satisfies it.
type Document interface {
	Find(selector string) *goquery.Selection
}

// Locator is a named CSS selector
type Locator struct {
	Name     string
	Selector string
}

// ImageStrategyFunc derives an image URL from a matched element, or returns ""
type ImageStrategyFunc func(*goquery.Selection) string

// Selectors contains the locator lists for each field in priority order
type Selectors struct {
	Title           []Locator
	Price           []Locator
	Image           []Locator
	ImageStrategies []ImageStrategyFunc
}

// Fields holds the raw values found on a page
type Fields struct {
	Title    string
	RawPrice string
	ImageURL string
	Matched  map[string]string
}

// DefaultSelectors returns the locators for Amazon product pages
func DefaultSelectors() Selectors {
	return Selectors{
		Title: []Locator{
			{Name: "product-title", Selector: "#productTitle"},
			{Name: "product-title-span", Selector: "span#productTitle"},
		},
		Price: []Locator{
			{Name: "core-price", Selector: "#corePrice_feature_div span.a-offscreen"},
			{Name: "our-price", Selector: "#priceblock_ourprice"},
			{Name: "deal-price", Selector: "#priceblock_dealprice"},
			{Name: "sale-price", Selector: "#priceblock_saleprice"},
			{Name: "a-price", Selector: "span.a-price span.a-offscreen"},
		},
		Image: []Locator{
			{Name: "landing-image", Selector: "#landingImage"},
			{Name: "book-front", Selector: "#imgBlkFront"},
			{Name: "main-image", Selector: "#main-image"},
			{Name: "dynamic-image", Selector: "img.a-dynamic-image"},
			{Name: "image-block-hires", Selector: "#imageBlock img[data-old-hires]"},
			{Name: "alt-thumbnail", Selector: "#altImages img.a-button-thumbnail"},
		},
		ImageStrategies: []ImageStrategyFunc{
			oldHiresImage,
			dynamicImage,
			srcImage,
		},
	}
}
