package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractASIN(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.amazon.com/Some-Item/dp/B08N5WRWNW/ref=sr_1_1", "B08N5WRWNW", true},
		{"https://www.amazon.com/gp/product/B07XJ8C8F5?th=1", "B07XJ8C8F5", true},
		{"https://www.amazon.com/dp/b08n5wrwnw", "", false},
		{"https://example.com/item/123", "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractASIN(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://www.amazon.com/dp/B08N5WRWNW"))
	assert.True(t, IsHTTPURL("  http://example.com/x  "))
	assert.False(t, IsHTTPURL("ftp://example.com/x"))
	assert.False(t, IsHTTPURL("not a url"))
	assert.False(t, IsHTTPURL("https:///path-only"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "www.amazon.com", HostOf("https://WWW.Amazon.com:443/dp/B08N5WRWNW"))
	assert.Equal(t, "", HostOf("::bad"))
}
