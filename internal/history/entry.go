package history

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the on-disk timestamp format, interpreted in the log's location
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the column layout written at the top of a new log
var Header = []string{"timestamp", "title", "price", "raw_price", "image_url", "url"}

// legacyColumns is the column count of rows written before image_url existed
const legacyColumns = 5

// Entry is one observation of a product. A failed attempt has no price,
// title or image; only the timestamp and URL are set.
type Entry struct {
	Timestamp    time.Time
	ProductURL   string
	Title        string
	Price        decimal.NullDecimal
	DisplayPrice string
	ImageURL     string

	seq int
}

// Succeeded reports whether the entry carries a price
func (e Entry) Succeeded() bool {
	return e.Price.Valid
}

// Failure returns a failure marker for url at ts
func Failure(ts time.Time, url string) Entry {
	return Entry{Timestamp: ts, ProductURL: url}
}

// Observation returns a priced entry
func Observation(ts time.Time, url, title string, price decimal.Decimal, display, imageURL string) Entry {
	return Entry{
		Timestamp:    ts,
		ProductURL:   url,
		Title:        title,
		Price:        decimal.NullDecimal{Decimal: price, Valid: true},
		DisplayPrice: display,
		ImageURL:     imageURL,
	}
}

// encodeRow renders e as one newline-terminated CSV record
func encodeRow(e Entry, loc *time.Location) ([]byte, error) {
	price := ""
	if e.Price.Valid {
		price = e.Price.Decimal.StringFixed(2)
	}
	return encodeLine([]string{
		e.Timestamp.In(loc).Format(TimestampLayout),
		e.Title,
		price,
		e.DisplayPrice,
		e.ImageURL,
		e.ProductURL,
	})
}

func encodeLine(fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// splitRecords cuts data into complete CSV records without their trailing
// newline. A newline inside a quoted field belongs to its record; a quote opens
// a field only at its start, so a bare quote in an unquoted field is text.
// end is the offset just past the last complete record.
func splitRecords(data []byte) (records [][]byte, end int) {
	inQuotes, fieldStart, closed := false, true, false
	for i, b := range data {
		if inQuotes {
			if b == '"' {
				inQuotes, closed = false, true
			}
			continue
		}
		switch {
		case b == '"' && (fieldStart || closed):
			// opening quote, or the second half of an escaped ""
			inQuotes = true
		case b == '\n':
			records = append(records, data[end:i])
			end = i + 1
		}
		fieldStart = b == ',' || b == '\n'
		closed = false
	}
	return records, end
}

// parseLine decodes one record. ok is false for headers and unusable rows.
func parseLine(line []byte, loc *time.Location) (Entry, bool) {
	r := csv.NewReader(bytes.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rec, err := r.Read()
	if err != nil || len(rec) < legacyColumns {
		return Entry{}, false
	}

	stamp := strings.TrimSpace(rec[0])
	if stamp == Header[0] {
		return Entry{}, false
	}
	ts, err := time.ParseInLocation(TimestampLayout, stamp, loc)
	if err != nil {
		return Entry{}, false
	}

	e := Entry{
		Timestamp:    ts,
		Title:        rec[1],
		DisplayPrice: rec[3],
	}
	if len(rec) > legacyColumns {
		e.ImageURL = rec[4]
		e.ProductURL = strings.TrimSpace(rec[5])
	} else {
		e.ProductURL = strings.TrimSpace(rec[4])
	}

	if raw := strings.TrimSpace(rec[2]); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			e.Price = decimal.NullDecimal{Decimal: price, Valid: true}
		}
	}
	return e, true
}
