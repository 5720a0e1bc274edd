package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/pricewatch/internal/pricing"
)

const (
	urlA = "https://www.amazon.com/dp/B000000001"
	urlB = "https://www.amazon.com/dp/B000000002"
)

func seed(t *testing.T, l *Log, entries ...Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, l.Append(e))
	}
}

func TestAllEntriesForOrdering(t *testing.T) {
	l := newTestLog(t)
	seed(t, l,
		Observation(at(10, 0), urlA, "first", price("100"), "PHP100.00", ""),
		Observation(at(12, 0), urlA, "newest", price("120"), "PHP120.00", ""),
		Observation(at(9, 0), urlB, "other", price("1"), "PHP1.00", ""),
		Observation(at(11, 0), urlA, "tie older append", price("110"), "PHP110.00", ""),
		Failure(at(11, 0), urlA),
	)

	entries, err := l.AllEntriesFor(urlA)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.After(entries[i-1].Timestamp), "entries must be newest first")
	}
	assert.Equal(t, "newest", entries[0].Title)
	// equal timestamps: the later append comes first
	assert.False(t, entries[1].Succeeded())
	assert.Equal(t, "tie older append", entries[2].Title)
	assert.Equal(t, "first", entries[3].Title)

	latest, ok, err := l.Latest(urlA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries[0].Title, latest.Title)

	previous, ok, err := l.Previous(urlA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entries[1].Timestamp.Equal(previous.Timestamp))
	assert.Equal(t, entries[1].Succeeded(), previous.Succeeded())
}

func TestPreviousNeedsTwoEntries(t *testing.T) {
	l := newTestLog(t)
	seed(t, l, Observation(at(10, 0), urlA, "only", price("1"), "PHP1.00", ""))

	_, ok, err := l.Previous(urlA)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	l := newTestLog(t)
	seed(t, l,
		Observation(at(8, 0), urlA, "p", price("150"), "", ""),
		Failure(at(9, 0), urlA),
		Observation(at(10, 0), urlA, "p", price("100"), "", ""),
		Observation(at(11, 0), urlA, "p", price("50"), "", ""),
		Failure(at(12, 0), urlA),
	)

	s, ok, err := l.Stats(urlA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "50", s.Lowest.String())
	assert.Equal(t, "150", s.Highest.String())
	assert.Equal(t, "100", s.Average.String())
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 5, s.Checks)
	assert.True(t, at(8, 0).Equal(s.FirstCheck))
	assert.True(t, at(11, 0).Equal(s.LastCheck))

	_, ok, err = l.Stats(urlB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBetween(t *testing.T) {
	l := newTestLog(t)
	seed(t, l,
		Observation(at(8, 0), urlA, "a", price("1"), "", ""),
		Observation(at(9, 0), urlA, "b", price("2"), "", ""),
		Observation(at(10, 0), urlA, "c", price("3"), "", ""),
		Observation(at(11, 0), urlA, "d", price("4"), "", ""),
	)

	entries, err := l.Between(urlA, at(9, 0), at(10, 0))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Title)
	assert.Equal(t, "b", entries[1].Title)
}

func TestChangeSkipsFailures(t *testing.T) {
	l := newTestLog(t)
	seed(t, l,
		Observation(at(8, 0), urlA, "p", price("50"), "", ""),
		Observation(at(9, 0), urlA, "p", price("100"), "", ""),
		Failure(at(10, 0), urlA),
	)

	c, ok, err := l.Change(urlA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "50", c.Delta.String())
	assert.Equal(t, "100", c.Percent.String())
	assert.Equal(t, pricing.Increase, c.Direction)

	_, ok, err = l.Change(urlB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnnotate(t *testing.T) {
	entries := []Entry{
		Observation(at(12, 0), urlA, "p", price("50"), "", ""),
		Failure(at(11, 0), urlA),
		Observation(at(10, 0), urlA, "p", price("100"), "", ""),
		Observation(at(9, 0), urlA, "p", price("100"), "", ""),
	}

	rows := Annotate(entries)
	require.Len(t, rows, 4)

	assert.True(t, rows[0].HasChange)
	assert.Equal(t, pricing.Decrease, rows[0].Change.Direction)
	assert.Equal(t, "-50", rows[0].Change.Percent.String())
	assert.False(t, rows[1].HasChange)
	assert.True(t, rows[2].HasChange)
	assert.Equal(t, pricing.Same, rows[2].Change.Direction)
	assert.False(t, rows[3].HasChange)
}

func TestSummaries(t *testing.T) {
	l := newTestLog(t)
	seed(t, l,
		Observation(at(8, 0), urlA, "A", price("100"), "PHP100.00", ""),
		Observation(at(9, 0), urlB, "B", price("10"), "PHP10.00", ""),
		Observation(at(10, 0), urlA, "A", price("90"), "PHP90.00", ""),
		Failure(at(11, 0), urlB),
	)

	summaries, err := l.Summaries()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	a := summaries[urlA]
	assert.Equal(t, 2, a.Checks)
	assert.Equal(t, "PHP90.00", a.Latest.DisplayPrice)
	assert.True(t, a.HasChange)
	assert.Equal(t, pricing.Decrease, a.Change.Direction)

	b := summaries[urlB]
	assert.Equal(t, 2, b.Checks)
	assert.False(t, b.Latest.Succeeded())
	assert.False(t, b.HasChange)

	latest, err := l.LatestByURL()
	require.NoError(t, err)
	assert.True(t, at(10, 0).Equal(latest[urlA].Timestamp))
	assert.True(t, at(11, 0).Equal(latest[urlB].Timestamp))
}

func TestComputeStatsEmpty(t *testing.T) {
	s, ok := ComputeStats(nil)
	assert.False(t, ok)
	assert.Zero(t, s.Count)

	s, ok = ComputeStats([]Entry{Failure(time.Now(), urlA)})
	assert.False(t, ok)
	assert.Equal(t, 1, s.Checks)
}
