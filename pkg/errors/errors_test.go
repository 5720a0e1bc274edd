package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeErrorMessage(t *testing.T) {
	err := NewHTTP("https://example.com/dp/B000000001", 503)
	assert.Equal(t, "[http] https://example.com/dp/B000000001: unexpected status code (status 503)", err.Error())
	assert.Equal(t, "HttpError", err.Reason())

	wrapped := NewNetwork("https://example.com", "request failed", stderrors.New("connection refused"))
	assert.Contains(t, wrapped.Error(), "connection refused")
	assert.Equal(t, "NetworkError", wrapped.Reason())
}

func TestReasons(t *testing.T) {
	assert.Equal(t, "NoTitleFound", NewNoTitle("u").Reason())
	assert.Equal(t, "NoPriceFound", NewNoPrice("u").Reason())
	assert.Equal(t, "MalformedPrice", NewMalformedPrice("u", "abc", nil).Reason())
	assert.Equal(t, "storage", NewStorage("write", nil).Reason())
}

func TestIsTypeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("scrape: %w", NewNoPrice("https://example.com"))

	assert.True(t, IsType(err, ErrorTypeNoPrice))
	assert.False(t, IsType(err, ErrorTypeNoTitle))
	assert.Equal(t, "NoPriceFound", ReasonOf(err))
	assert.Equal(t, "plain", ReasonOf(stderrors.New("plain")))
	assert.Equal(t, "", ReasonOf(nil))
}

func TestFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("run: %w", NewStorage("append", nil))))
	assert.True(t, NewSource("read", nil).IsFatal())
	assert.False(t, NewNoTitle("u").IsFatal())
	assert.False(t, IsFatal(stderrors.New("other")))
	assert.False(t, New(ErrorTypeImageNotFound, "u", "no image", nil).IsFatal())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dns")
	err := NewNetwork("u", "fetch", cause)
	assert.True(t, stderrors.Is(err, cause))
}
