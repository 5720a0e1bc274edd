package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricewatch/pkg/errors"
)

// Extractor pulls title, price and image out of a parsed product page.
// Each field is tried against its locators in order and the first match wins.
type Extractor struct {
	selectors Selectors
}

// NewExtractor creates an extractor for the given selector set
func NewExtractor(selectors Selectors) *Extractor {
	return &Extractor{selectors: selectors}
}

// Extract returns the raw fields of a product page.
// Title and price are mandatory; a missing image leaves ImageURL empty.
func (e *Extractor) Extract(doc Document) (Fields, error) {
	fields := Fields{Matched: make(map[string]string, 3)}

	title, name, ok := e.firstText(doc, e.selectors.Title, true)
	if !ok {
		return fields, errors.NewNoTitle("")
	}
	fields.Title = title
	fields.Matched["title"] = name

	price, name, ok := e.firstText(doc, e.selectors.Price, false)
	if !ok {
		return fields, errors.NewNoPrice("")
	}
	fields.RawPrice = price
	fields.Matched["price"] = name

	if image, name := e.image(doc); image != "" {
		fields.ImageURL = image
		fields.Matched["image"] = name
	}

	return fields, nil
}

// firstText returns the trimmed text of the first node of the first matching locator.
// With requireText a locator only counts when that text is non-empty.
func (e *Extractor) firstText(doc Document, locators []Locator, requireText bool) (string, string, bool) {
	for _, loc := range locators {
		sel := doc.Find(loc.Selector)
		if sel.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(sel.First().Text())
		if requireText && text == "" {
			continue
		}
		return text, loc.Name, true
	}
	return "", "", false
}

func (e *Extractor) image(doc Document) (string, string) {
	for _, loc := range e.selectors.Image {
		sel := doc.Find(loc.Selector)
		if sel.Length() == 0 {
			continue
		}
		first := sel.First()
		for _, strategy := range e.selectors.ImageStrategies {
			if url := strings.TrimSpace(strategy(first)); url != "" {
				return url, loc.Name
			}
		}
	}
	return "", ""
}

func oldHiresImage(s *goquery.Selection) string {
	v, _ := s.Attr("data-old-hires")
	return v
}

// dynamicImage returns the first key of the JSON object in data-a-dynamic-image.
// The object maps image URLs to sizes and the first key is the preferred one,
// so keys are read as tokens to keep document order.
func dynamicImage(s *goquery.Selection) string {
	raw, ok := s.Attr("data-a-dynamic-image")
	if !ok || strings.TrimSpace(raw) == "" {
		return ""
	}
	return firstJSONKey(raw)
}

func firstJSONKey(raw string) string {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ""
	}
	if !dec.More() {
		return ""
	}
	tok, err = dec.Token()
	if err != nil {
		return ""
	}
	key, _ := tok.(string)
	return key
}

func srcImage(s *goquery.Selection) string {
	v, _ := s.Attr("src")
	if strings.HasPrefix(v, "data:") {
		return ""
	}
	return v
}
