package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures where the fetch never completed
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeHTTP represents a response with a non-success status code
	ErrorTypeHTTP ErrorType = "http"
	// ErrorTypeRateLimit represents a host that is temporarily blocked after a 429
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents a document that could not be parsed at all
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeNoTitle represents a page without any title locator match
	ErrorTypeNoTitle ErrorType = "no_title"
	// ErrorTypeNoPrice represents a page without any price locator match
	ErrorTypeNoPrice ErrorType = "no_price"
	// ErrorTypeMalformedPrice represents price text that is not numeric after stripping
	ErrorTypeMalformedPrice ErrorType = "malformed_price"
	// ErrorTypeImageNotFound represents a missing product image. Never fails a scrape.
	ErrorTypeImageNotFound ErrorType = "image_not_found"
	// ErrorTypeStorage represents history log I/O failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeSource represents failures reading the tracked URL list
	ErrorTypeSource ErrorType = "source"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeLease represents lease acquisition errors
	ErrorTypeLease ErrorType = "lease"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

var reasons = map[ErrorType]string{
	ErrorTypeNetwork:        "NetworkError",
	ErrorTypeHTTP:           "HttpError",
	ErrorTypeRateLimit:      "RateLimited",
	ErrorTypeParsing:        "ParseError",
	ErrorTypeNoTitle:        "NoTitleFound",
	ErrorTypeNoPrice:        "NoPriceFound",
	ErrorTypeMalformedPrice: "MalformedPrice",
	ErrorTypeImageNotFound:  "ImageNotFound",
}

// ScrapeError represents a failure tied to a single product URL or infrastructure component
type ScrapeError struct {
	Type    ErrorType
	URL     string
	Message string
	Status  int
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.URL != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.URL, e.Message)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s - %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Reason returns the human-readable failure reason recorded for a scrape attempt
func (e *ScrapeError) Reason() string {
	if r, ok := reasons[e.Type]; ok {
		return r
	}
	return string(e.Type)
}

// IsFatal reports whether the error should abort a whole tracking run.
// Everything tied to a single product is recorded and the run continues.
func (e *ScrapeError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeStorage, ErrorTypeSource:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(url, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, url, message, err)
}

// NewHTTP creates an error for a non-success response status
func NewHTTP(url string, status int) *ScrapeError {
	e := New(ErrorTypeHTTP, url, "unexpected status code", nil)
	e.Status = status
	return e
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(url string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, url, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(url, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, url, message, err)
}

// NewNoTitle creates an error for a page without a title match
func NewNoTitle(url string) *ScrapeError {
	return New(ErrorTypeNoTitle, url, "no title locator matched", nil)
}

// NewNoPrice creates an error for a page without a price match
func NewNoPrice(url string) *ScrapeError {
	return New(ErrorTypeNoPrice, url, "no price locator matched", nil)
}

// NewMalformedPrice creates an error for unparseable price text
func NewMalformedPrice(url, raw string, err error) *ScrapeError {
	return New(ErrorTypeMalformedPrice, url, fmt.Sprintf("cannot parse price %q", raw), err)
}

// NewStorage creates a new history storage error
func NewStorage(message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, "", message, err)
}

// NewSource creates a new tracked URL source error
func NewSource(message string, err error) *ScrapeError {
	return New(ErrorTypeSource, "", message, err)
}

// NewCache creates a new cache error
func NewCache(message string, err error) *ScrapeError {
	return New(ErrorTypeCache, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(url, message string, err error) *ScrapeError {
	return New(ErrorTypePublisher, url, message, err)
}

// NewLease creates a new lease error
func NewLease(message string, err error) *ScrapeError {
	return New(ErrorTypeLease, "", message, err)
}

// NewValidation creates a new validation error
func NewValidation(url, message string) *ScrapeError {
	return New(ErrorTypeValidation, url, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// As returns the first ScrapeError in err's chain
func As(err error) (*ScrapeError, bool) {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsType reports whether err wraps a ScrapeError of the given type
func IsType(err error, errType ErrorType) bool {
	se, ok := As(err)
	return ok && se.Type == errType
}

// IsFatal reports whether err wraps a run-aborting ScrapeError
func IsFatal(err error) bool {
	se, ok := As(err)
	return ok && se.IsFatal()
}

// ReasonOf returns the failure reason for err, or its message when it is not a ScrapeError
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	if se, ok := As(err); ok {
		return se.Reason()
	}
	return err.Error()
}
