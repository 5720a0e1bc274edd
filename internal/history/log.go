package history

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
)

// Log is an append-only CSV history of product observations.
// One writer at a time is assumed; readers may run concurrently with it.
type Log struct {
	path string
	loc  *time.Location
	mu   sync.Mutex
	now  func() time.Time
	log  *logger.Logger

	// cleanSize is the file size after our last append; a different size
	// means another writer touched the file and the tail is checked again
	cleanSize int64
}

// NewLog opens the history stored at path. The file is created on first append.
func NewLog(path string, loc *time.Location) *Log {
	if loc == nil {
		loc = time.UTC
	}
	return &Log{
		path: path,
		loc:  loc,
		now:  time.Now,
		log:  logger.ForHistory(),
	}
}

// Path returns the backing file path
func (l *Log) Path() string {
	return l.path
}

// Location returns the reference location used for timestamps
func (l *Log) Location() *time.Location {
	return l.loc
}

// Now returns the current time in the log's location at second precision
func (l *Log) Now() time.Time {
	return l.now().In(l.loc).Truncate(time.Second)
}

// Append writes e as one row. The header is written only into an empty file,
// and a partial record left by an interrupted writer is cut off first.
func (l *Log) Append(e Entry) error {
	row, err := encodeRow(e, l.loc)
	if err != nil {
		return errors.NewStorage("failed to encode history row", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return errors.NewStorage(fmt.Sprintf("failed to open %s", l.path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.NewStorage("failed to stat history", err)
	}

	size := info.Size()
	if size > 0 && size != l.cleanSize {
		data, err := io.ReadAll(io.NewSectionReader(f, 0, size))
		if err != nil {
			return errors.NewStorage("failed to read history tail", err)
		}
		if _, end := splitRecords(data); int64(end) < size {
			l.log.Warn().
				Str("path", l.path).
				Int64("bytes", size-int64(end)).
				Msg("Discarding partial row left by an interrupted write")
			if err := f.Truncate(int64(end)); err != nil {
				return errors.NewStorage("failed to cut partial history row", err)
			}
			size = int64(end)
		}
	}

	var buf bytes.Buffer
	if size == 0 {
		header, _ := encodeLine(slices.Clone(Header))
		buf.Write(header)
	}
	buf.Write(row)

	if _, err := f.Write(buf.Bytes()); err != nil {
		l.cleanSize = -1
		return errors.NewStorage("failed to append history row", err)
	}
	if err := f.Sync(); err != nil {
		l.cleanSize = -1
		return errors.NewStorage("failed to sync history", err)
	}
	l.cleanSize = size + int64(buf.Len())
	return nil
}

// Entries returns every readable entry in file order.
// A missing file is an empty history.
func (l *Log) Entries() ([]Entry, error) {
	records, err := l.readRecords()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	skipped := 0
	for seq, rec := range records {
		rec = bytes.TrimRight(rec, "\r")
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}
		if isHeader(rec) {
			continue
		}
		e, ok := parseLine(rec, l.loc)
		if !ok {
			skipped++
			continue
		}
		e.seq = seq
		entries = append(entries, e)
	}
	if skipped > 0 {
		l.log.Debug().Int("rows", skipped).Str("path", l.path).Msg("Skipped unreadable history rows")
	}
	return entries, nil
}

// readRecords returns the complete records of the file. A trailing partial
// record is left out.
func (l *Log) readRecords() ([][]byte, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorage(fmt.Sprintf("failed to read %s", l.path), err)
	}
	records, _ := splitRecords(data)
	return records, nil
}

// TrimOlderThan removes rows stamped before cutoff by rewriting the file
// atomically. Rows that cannot be parsed are kept. It returns the number of
// rows removed.
func (l *Log) TrimOlderThan(cutoff time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readRecords()
	if err != nil || records == nil {
		return 0, err
	}

	var out bytes.Buffer
	header, _ := encodeLine(slices.Clone(Header))
	out.Write(header)

	removed := 0
	for _, line := range records {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 || isHeader(line) {
			continue
		}
		if e, ok := parseLine(line, l.loc); ok && e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		out.Write(line)
		out.WriteByte('\n')
	}

	if removed == 0 {
		return 0, nil
	}
	if err := l.replace(out.Bytes()); err != nil {
		return 0, err
	}
	l.cleanSize = int64(out.Len())

	l.log.Info().Int("removed", removed).Time("cutoff", cutoff).Msg("Trimmed history")
	return removed, nil
}

func isHeader(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(line), []byte(Header[0]+","))
}

func (l *Log) replace(content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return errors.NewStorage("failed to create temp history", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(content)); err != nil {
		tmp.Close()
		return errors.NewStorage("failed to write temp history", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.NewStorage("failed to set temp history mode", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewStorage("failed to sync temp history", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewStorage("failed to close temp history", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return errors.NewStorage("failed to replace history", err)
	}
	return nil
}
