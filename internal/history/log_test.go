package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricewatch/pkg/errors"
)

var manila = time.FixedZone("PHT", 8*60*60)

var entryOpts = cmp.Options{
	cmpopts.IgnoreUnexported(Entry{}),
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
}

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return NewLog(filepath.Join(t.TempDir(), "price_history.csv"), manila)
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 14, hour, minute, 0, 0, manila)
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestAppendRoundTrip(t *testing.T) {
	l := newTestLog(t)
	const url = "https://www.amazon.com/dp/B08N5WRWNW"

	want := []Entry{
		Observation(at(9, 0), url, "Echo Dot, 4th Gen", price("2949.41"), "PHP2,949.41", "https://img/1.jpg"),
		Failure(at(10, 0), url),
		Observation(at(11, 0), url, `Title with "quotes"`, price("2890.00"), "PHP2,890.00", ""),
		Observation(at(12, 0), "https://www.amazon.com/dp/B07XJ8C8F5", "Kindle", price("5900"), "PHP5,900.00", "https://img/2.jpg"),
	}
	for _, e := range want {
		require.NoError(t, l.Append(e))
	}

	got, err := l.Entries()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, entryOpts); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	content := readFile(t, l.Path())
	assert.Equal(t, 1, strings.Count(content, "timestamp,title,price,raw_price,image_url,url\n"))
	assert.True(t, strings.HasPrefix(content, "timestamp,title,price,raw_price,image_url,url\n"))
	assert.Contains(t, content, "2025-03-14 10:00:00,,,,,"+url+"\n")
}

func TestAppendKeepsMultiLineTitle(t *testing.T) {
	l := newTestLog(t)
	const url = "https://a.example/dp/B000000001"
	want := []Entry{
		Observation(at(9, 0), url, "Multi\nline \"quoted\"\n\ttitle", price("1"), "PHP1.00", ""),
		Observation(at(10, 0), url, "Next", price("2"), "PHP2.00", ""),
	}
	for _, e := range want {
		require.NoError(t, l.Append(e))
	}

	got, err := l.Entries()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, entryOpts); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	latest, ok, err := l.Latest(url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Next", latest.Title)
}

func TestAppendStoresInLogLocation(t *testing.T) {
	l := newTestLog(t)
	utc := time.Date(2025, 3, 14, 1, 30, 0, 0, time.UTC)
	require.NoError(t, l.Append(Failure(utc, "https://a.example")))

	assert.Contains(t, readFile(t, l.Path()), "2025-03-14 09:30:00,")
	entries, err := l.Entries()
	require.NoError(t, err)
	assert.True(t, utc.Equal(entries[0].Timestamp))
}

func TestReadsLegacyAndCurrentRows(t *testing.T) {
	l := newTestLog(t)
	// a legacy file keeps its five-column header after six-column rows are appended
	content := strings.Join([]string{
		"timestamp,title,price,raw_price,url",
		"2025-03-01 08:00:00,Old Row,1000,\"PHP1,000.00\",https://a.example/dp/B000000001",
		"2025-03-02 08:00:00,New Row,1100.50,\"PHP1,100.50\",https://img/x.jpg,https://a.example/dp/B000000001",
		"2025-03-03 08:00:00,,,,,https://a.example/dp/B000000001",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0o644))

	got, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Old Row", got[0].Title)
	assert.Empty(t, got[0].ImageURL)
	assert.Equal(t, "https://a.example/dp/B000000001", got[0].ProductURL)
	assert.Equal(t, "New Row", got[1].Title)
	assert.Equal(t, "https://img/x.jpg", got[1].ImageURL)
	assert.Equal(t, "https://a.example/dp/B000000001", got[1].ProductURL)
	assert.Equal(t, "1100.5", got[1].Price.Decimal.String())
	assert.False(t, got[2].Succeeded())
}

func TestReadsFiveColumnRows(t *testing.T) {
	l := newTestLog(t)
	content := "timestamp,title,price,raw_price,url\n" +
		"2025-03-01 08:00:00,Old Row,1000,\"PHP1,000.00\",https://a.example/dp/B000000001\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0o644))

	want := []Entry{{
		Timestamp:    time.Date(2025, 3, 1, 8, 0, 0, 0, manila),
		ProductURL:   "https://a.example/dp/B000000001",
		Title:        "Old Row",
		Price:        decimal.NullDecimal{Decimal: price("1000"), Valid: true},
		DisplayPrice: "PHP1,000.00",
	}}
	got, err := l.Entries()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, entryOpts); diff != "" {
		t.Errorf("legacy row mismatch (-want +got):\n%s", diff)
	}
}

func TestSkipsUnusableRows(t *testing.T) {
	l := newTestLog(t)
	content := "timestamp,title,price,raw_price,image_url,url\n" +
		"2025-03-01 08:00:00,too,few\n" +
		"yesterday,Bad Stamp,1,PHP1.00,,https://a.example\n" +
		"2025-03-01 09:00:00,Bad Price,abc,PHPabc,,https://a.example\n" +
		"2025-03-01 10:00:00,Good,2,PHP2.00,,https://a.example\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0o644))

	got, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Bad Price", got[0].Title)
	assert.False(t, got[0].Succeeded())
	assert.Equal(t, "Good", got[1].Title)
}

func TestBareQuoteStaysInItsRow(t *testing.T) {
	l := newTestLog(t)
	content := "timestamp,title,price,raw_price,image_url,url\n" +
		"2025-03-01 08:00:00,Monitor 27\" IPS,1,PHP1.00,,https://a.example\n" +
		"2025-03-01 09:00:00,\"Cable \"\"2m\"\"\",2,PHP2.00,,https://a.example\n" +
		"2025-03-01 10:00:00,Next,3,PHP3.00,,https://a.example\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0o644))

	got, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, `Monitor 27" IPS`, got[0].Title)
	assert.Equal(t, `Cable "2m"`, got[1].Title)
	assert.Equal(t, "Next", got[2].Title)
}

func TestMissingFileIsEmpty(t *testing.T) {
	l := newTestLog(t)
	entries, err := l.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, ok, err := l.Latest("https://a.example")
	require.NoError(t, err)
	assert.False(t, ok)
}

func appendRaw(t *testing.T, path, raw string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(raw)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestTornTail(t *testing.T) {
	const url = "https://a.example/dp/B000000001"
	tests := []struct {
		name string
		torn string
	}{
		{name: "inside price", torn: "2025-03-14 09:30:00,Partial,1"},
		{name: "inside url", torn: "2025-03-14 09:30:00,Partial,9,PHP99.99,,https://a.example/dp/B0000"},
		{name: "inside quoted title", torn: "2025-03-14 09:30:00,\"Partial\nsecond line\n"},
		{name: "clean tail", torn: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLog(t)
			require.NoError(t, l.Append(Observation(at(9, 0), url, "Complete", price("10"), "PHP10.00", "")))
			appendRaw(t, l.Path(), tt.torn)

			// readers see the consistent prefix only
			entries, err := l.Entries()
			require.NoError(t, err)
			require.Len(t, entries, 1)

			// a fresh handle has not seen the file yet
			l = NewLog(l.Path(), manila)
			require.NoError(t, l.Append(Observation(at(10, 0), url, "After crash", price("11"), "PHP11.00", "")))

			entries, err = l.Entries()
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "Complete", entries[0].Title)
			assert.Equal(t, "After crash", entries[1].Title)

			content := readFile(t, l.Path())
			assert.NotContains(t, content, "Partial")
			assert.True(t, strings.HasSuffix(content, "\n2025-03-14 10:00:00,After crash,11.00,PHP11.00,,"+url+"\n"))
		})
	}
}

func TestAppendAfterForeignWriteChecksTail(t *testing.T) {
	l := newTestLog(t)
	const url = "https://a.example/dp/B000000001"
	require.NoError(t, l.Append(Observation(at(9, 0), url, "Complete", price("10"), "PHP10.00", "")))

	// same handle, file changed behind its back
	appendRaw(t, l.Path(), "2025-03-14 09:30:00,Torn,9,PHP99.99,,https://a.example/dp/B0000")
	require.NoError(t, l.Append(Observation(at(10, 0), url, "After crash", price("11"), "PHP11.00", "")))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEqual(t, "Torn", e.Title)
		assert.Equal(t, url, e.ProductURL)
	}
}

func TestAppendUnwritableIsStorageError(t *testing.T) {
	l := NewLog(filepath.Join(t.TempDir(), "missing", "dir", "history.csv"), manila)
	err := l.Append(Failure(at(9, 0), "https://a.example"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))
	assert.True(t, errors.IsFatal(err))
}

func TestTrimOlderThan(t *testing.T) {
	l := newTestLog(t)
	for i := 1; i <= 5; i++ {
		ts := time.Date(2025, 3, i, 8, 0, 0, 0, manila)
		require.NoError(t, l.Append(Observation(ts, "https://a.example", fmt.Sprintf("day %d", i), price("1"), "PHP1.00", "")))
	}

	removed, err := l.TrimOlderThan(time.Date(2025, 3, 3, 0, 0, 0, 0, manila))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "day 3", entries[0].Title)
	assert.True(t, strings.HasPrefix(readFile(t, l.Path()), "timestamp,title,price,raw_price,image_url,url\n"))

	info, err := os.Stat(l.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	removed, err = l.TrimOlderThan(time.Date(2025, 3, 3, 0, 0, 0, 0, manila))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestNowUsesLocationAndSeconds(t *testing.T) {
	l := newTestLog(t)
	l.now = func() time.Time { return time.Date(2025, 3, 14, 0, 0, 0, 987654321, time.UTC) }

	now := l.Now()
	assert.Equal(t, manila, now.Location())
	assert.Equal(t, 8, now.Hour())
	assert.Zero(t, now.Nanosecond())
}
