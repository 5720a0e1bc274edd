package lease

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/pkg/errors"
)

// ErrHeld is returned when another run holds the lease
var ErrHeld = stderrors.New("lease is held by another run")

// Lease excludes concurrent tracking runs
type Lease interface {
	// TryAcquire takes the lease or returns ErrHeld
	TryAcquire() error

	// Release gives the lease up if this holder still owns it
	Release() error
}

// AcquireOptions controls how long Acquire keeps trying
type AcquireOptions struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultAcquireOptions tries once; a held lease means this run is skipped
func DefaultAcquireOptions() AcquireOptions {
	return AcquireOptions{Attempts: 1, Delay: time.Second, MaxDelay: 30 * time.Second}
}

// Acquire takes l, retrying while it is held or the backend errors.
// The returned error wraps ErrHeld when the lease stayed busy.
func Acquire(ctx context.Context, l Lease, opts AcquireOptions) error {
	log := logger.ForLease()
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}

	var last error
	err := retry.Do(
		func() error {
			last = l.TryAcquire()
			return last
		},
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.MaxDelay(opts.MaxDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("attempt", n+1).Err(err).Msg("Retrying lease acquisition")
		}),
	)
	if err != nil {
		if stderrors.Is(last, ErrHeld) {
			return fmt.Errorf("acquire lease: %w", ErrHeld)
		}
		if last == nil {
			last = err
		}
		return errors.NewLease("failed to acquire lease", last)
	}
	return nil
}

// ownerToken identifies this process as the holder
func ownerToken() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s:%d:%d", host, os.Getpid(), time.Now().UnixNano())
}
