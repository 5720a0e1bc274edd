package lease

import (
	"fmt"
	"os"
	"strings"
	"time"

	"sjsage522/pricewatch/logger"
)

// FileLease is an exclusive lock file. A lock older than ttl is treated as
// left behind by a crashed run and replaced.
type FileLease struct {
	path  string
	ttl   time.Duration
	owner string
	now   func() time.Time
	log   *logger.Logger
}

var _ Lease = (*FileLease)(nil)

// NewFileLease creates a lease on path
func NewFileLease(path string, ttl time.Duration) *FileLease {
	return &FileLease{
		path:  path,
		ttl:   ttl,
		owner: ownerToken(),
		now:   time.Now,
		log:   logger.ForLease(),
	}
}

// TryAcquire creates the lock file exclusively
func (l *FileLease) TryAcquire() error {
	err := l.create()
	if err == nil || !os.IsExist(err) {
		return err
	}

	info, statErr := os.Stat(l.path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return l.createOrHeld()
		}
		return statErr
	}

	age := l.now().Sub(info.ModTime())
	if age <= l.ttl {
		return ErrHeld
	}

	l.log.Warn().
		Str("path", l.path).
		Dur("age", age).
		Msg("Replacing stale lock")
	return l.reclaim(info)
}

// reclaim replaces the stale lock. The file at path is renamed aside and only
// dropped when it is still that stale lock; a lock another run created in the
// meantime is put back.
func (l *FileLease) reclaim(stale os.FileInfo) error {
	aside := fmt.Sprintf("%s.stale.%d.%d", l.path, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(l.path, aside); err != nil {
		if os.IsNotExist(err) {
			return l.createOrHeld()
		}
		return err
	}

	moved, err := os.Stat(aside)
	if err != nil {
		return err
	}
	if !os.SameFile(stale, moved) {
		// another run already replaced it; hand its lock back
		if err := os.Link(aside, l.path); err != nil && !os.IsExist(err) {
			return err
		}
		os.Remove(aside)
		return ErrHeld
	}

	if err := os.Remove(aside); err != nil && !os.IsNotExist(err) {
		return err
	}
	return l.createOrHeld()
}

func (l *FileLease) createOrHeld() error {
	if err := l.create(); err != nil {
		if os.IsExist(err) {
			return ErrHeld
		}
		return err
	}
	return nil
}

func (l *FileLease) create() error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	content := fmt.Sprintf("owner=%s\nacquired=%s\n", l.owner, l.now().Format(time.RFC3339))
	_, err = f.WriteString(content)
	return err
}

// Release removes the lock file if it still belongs to this holder
func (l *FileLease) Release() error {
	b, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !strings.Contains(string(b), "owner="+l.owner+"\n") {
		l.log.Warn().Str("path", l.path).Msg("Lock was taken over by another run, leaving it")
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
