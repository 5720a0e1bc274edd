package history

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"sjsage522/pricewatch/internal/pricing"
)

// Stats summarizes the priced observations of one product
type Stats struct {
	Lowest     decimal.Decimal
	Highest    decimal.Decimal
	Average    decimal.Decimal
	Count      int
	Checks     int
	FirstCheck time.Time
	LastCheck  time.Time
}

// Summary is the dashboard view of one product
type Summary struct {
	URL       string
	Latest    Entry
	Checks    int
	Change    pricing.Change
	HasChange bool
}

// AnnotatedEntry is an entry with its change against the next older priced entry
type AnnotatedEntry struct {
	Entry
	Change    pricing.Change
	HasChange bool
}

// newestFirst orders by timestamp descending; equal timestamps put the later append first
func newestFirst(a, b Entry) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.seq, a.seq)
}

// AllEntriesFor returns every entry for url, newest first
func (l *Log) AllEntriesFor(url string) ([]Entry, error) {
	all, err := l.Entries()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.ProductURL == url {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, newestFirst)
	return out, nil
}

// Latest returns the most recent entry for url
func (l *Log) Latest(url string) (Entry, bool, error) {
	return l.nth(url, 0)
}

// Previous returns the second most recent entry for url
func (l *Log) Previous(url string) (Entry, bool, error) {
	return l.nth(url, 1)
}

func (l *Log) nth(url string, n int) (Entry, bool, error) {
	entries, err := l.AllEntriesFor(url)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) <= n {
		return Entry{}, false, nil
	}
	return entries[n], true, nil
}

// Stats computes lowest, highest and average over the priced entries for url.
// ok is false when url has no priced entries.
func (l *Log) Stats(url string) (Stats, bool, error) {
	entries, err := l.AllEntriesFor(url)
	if err != nil {
		return Stats{}, false, err
	}
	s, ok := ComputeStats(entries)
	return s, ok, nil
}

// ComputeStats summarizes entries, which may be in any order
func ComputeStats(entries []Entry) (Stats, bool) {
	var s Stats
	s.Checks = len(entries)
	sum := decimal.Zero
	for _, e := range entries {
		if !e.Succeeded() {
			continue
		}
		p := e.Price.Decimal
		if s.Count == 0 {
			s.Lowest, s.Highest = p, p
			s.FirstCheck, s.LastCheck = e.Timestamp, e.Timestamp
		}
		s.Lowest = decimal.Min(s.Lowest, p)
		s.Highest = decimal.Max(s.Highest, p)
		if e.Timestamp.Before(s.FirstCheck) {
			s.FirstCheck = e.Timestamp
		}
		if e.Timestamp.After(s.LastCheck) {
			s.LastCheck = e.Timestamp
		}
		sum = sum.Add(p)
		s.Count++
	}
	if s.Count == 0 {
		return s, false
	}
	s.Average = sum.DivRound(decimal.NewFromInt(int64(s.Count)), 2)
	return s, true
}

// Between returns the entries for url stamped within [from, to], newest first
func (l *Log) Between(url string, from, to time.Time) ([]Entry, error) {
	entries, err := l.AllEntriesFor(url)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Change compares the two most recent priced entries for url
func (l *Log) Change(url string) (pricing.Change, bool, error) {
	entries, err := l.AllEntriesFor(url)
	if err != nil {
		return pricing.Change{}, false, err
	}
	c, ok := changeOf(entries)
	return c, ok, nil
}

// changeOf expects entries newest first
func changeOf(entries []Entry) (pricing.Change, bool) {
	var priced []decimal.Decimal
	for _, e := range entries {
		if e.Succeeded() {
			priced = append(priced, e.Price.Decimal)
			if len(priced) == 2 {
				return pricing.Compute(priced[0], priced[1]), true
			}
		}
	}
	return pricing.Change{}, false
}

// Annotate pairs each priced entry with its change against the next older priced
// entry. entries must be newest first.
func Annotate(entries []Entry) []AnnotatedEntry {
	out := make([]AnnotatedEntry, len(entries))
	for i, e := range entries {
		out[i].Entry = e
		if !e.Succeeded() {
			continue
		}
		for _, older := range entries[i+1:] {
			if older.Succeeded() {
				out[i].Change = pricing.Compute(e.Price.Decimal, older.Price.Decimal)
				out[i].HasChange = true
				break
			}
		}
	}
	return out
}

// Summaries returns one summary per product URL found in the log
func (l *Log) Summaries() (map[string]Summary, error) {
	all, err := l.Entries()
	if err != nil {
		return nil, err
	}

	byURL := make(map[string][]Entry)
	for _, e := range all {
		byURL[e.ProductURL] = append(byURL[e.ProductURL], e)
	}

	out := make(map[string]Summary, len(byURL))
	for url, entries := range byURL {
		slices.SortFunc(entries, newestFirst)
		s := Summary{URL: url, Latest: entries[0], Checks: len(entries)}
		s.Change, s.HasChange = changeOf(entries)
		out[url] = s
	}
	return out, nil
}

// LatestByURL returns the most recent entry of every product in the log
func (l *Log) LatestByURL() (map[string]Entry, error) {
	summaries, err := l.Summaries()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(summaries))
	for url, s := range summaries {
		out[url] = s.Latest
	}
	return out, nil
}
