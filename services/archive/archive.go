package archive

import (
	"context"
	"os"
	"time"

	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
)

// Target stores archived objects
type Target interface {
	// Put writes data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte) error

	// Close releases the target's resources
	Close() error
}

// Archiver copies the history log to a target after each run
type Archiver struct {
	target Target
	source string
	object string
	log    *logger.Logger
}

// New creates an archiver for the file at source, stored as object
func New(target Target, source, object string) *Archiver {
	return &Archiver{
		target: target,
		source: source,
		object: object,
		log:    logger.ForArchive(),
	}
}

// Snapshot uploads the current contents of the source file.
// A missing source is not an error; there is nothing to archive yet.
func (a *Archiver) Snapshot(ctx context.Context) error {
	data, err := os.ReadFile(a.source)
	if err != nil {
		if os.IsNotExist(err) {
			a.log.Debug().Str("source", a.source).Msg("Nothing to archive")
			return nil
		}
		return errors.NewStorage("read archive source", err)
	}

	start := time.Now()
	if err := a.target.Put(ctx, a.object, data); err != nil {
		return err
	}
	a.log.Info().
		Str("object", a.object).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("Archived history")
	return nil
}

// Close closes the underlying target
func (a *Archiver) Close() error {
	return a.target.Close()
}
