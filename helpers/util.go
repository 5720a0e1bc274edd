package helpers

import (
	"net/url"
	"regexp"
	"strings"
)

var asinPattern = regexp.MustCompile(`/(?:dp|product)/([A-Z0-9]{10})`)

// ExtractASIN returns the 10-character product identifier from a /dp/ or /product/ path
func ExtractASIN(productURL string) (string, bool) {
	m := asinPattern.FindStringSubmatch(productURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// HostOf returns the lowercased host of a URL, or an empty string when it cannot be parsed
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
