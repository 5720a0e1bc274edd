package scraper

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/pricewatch/internal/pricing"
	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
)

// PageFetcher retrieves a page body. A response may accompany an HTTP error.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// ProductScraper combines fetching, extraction and normalization
type ProductScraper struct {
	fetcher    PageFetcher
	extractor  *Extractor
	normalizer *pricing.Normalizer
	log        *logger.Logger
}

var _ Scraper = (*ProductScraper)(nil)

// New creates a product scraper
func New(fetcher PageFetcher, extractor *Extractor, normalizer *pricing.Normalizer) *ProductScraper {
	return &ProductScraper{
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: normalizer,
		log:        logger.ForScraper(),
	}
}

// ScrapeProduct fetches url and returns a record only when both title and
// price were found and the price parsed. A missing image does not fail it.
func (s *ProductScraper) ScrapeProduct(ctx context.Context, url string) (*ProductRecord, error) {
	resp, fetchErr := s.fetcher.Fetch(ctx, url)
	if resp == nil {
		if fetchErr == nil {
			fetchErr = errors.NewNetwork(url, "empty response", nil)
		}
		return nil, fetchErr
	}

	status := 0
	if se, ok := errors.As(fetchErr); ok {
		status = se.Status
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, errors.NewParsing(url, "failed to parse document", err)
	}

	fields, err := s.extractor.Extract(doc)
	if err != nil {
		return nil, s.withURL(err, url, status)
	}

	normalized, err := s.normalizer.Normalize(fields.RawPrice)
	if err != nil {
		return nil, s.withURL(err, url, status)
	}

	if fetchErr != nil {
		s.log.Warn().
			Str("url", url).
			Int("status", status).
			Msg("Extracted product from a non-success response")
	}
	if fields.ImageURL == "" {
		s.log.Debug().Str("url", url).Msg("No product image found")
	}
	if normalized.Detected == pricing.DetectedUnknown {
		s.log.Warn().
			Str("url", url).
			Str("raw_price", fields.RawPrice).
			Msg("No currency marker found, converted as source currency")
	}

	s.log.Debug().
		Str("url", url).
		Interface("locators", fields.Matched).
		Str("price", normalized.Display).
		Msg("Scraped product")

	return &ProductRecord{
		Title:        fields.Title,
		Price:        normalized.Amount,
		DisplayPrice: normalized.Display,
		ImageURL:     fields.ImageURL,
		SourceURL:    url,
		Currency:     normalized.Detected.String(),
	}, nil
}

// withURL attaches the product URL and response status to an extraction error
func (s *ProductScraper) withURL(err error, url string, status int) error {
	if se, ok := errors.As(err); ok {
		se.URL = url
		if se.Status == 0 {
			se.Status = status
		}
	}
	return err
}
