package lease

import (
	stderrors "errors"
	"time"

	"sjsage522/pricewatch/logger"
	"sjsage522/pricewatch/services/cache"
)

// DefaultKey is the cache key used for the tracking lease
const DefaultKey = "pricewatch:lease:track"

// CacheLease holds the lease as a cache entry created with Add, so that
// schedulers on different hosts sharing one memcache exclude each other.
// The entry expires after ttl if the holder never releases it.
type CacheLease struct {
	cache cache.CacheService
	key   string
	ttl   time.Duration
	owner string
	log   *logger.Logger
}

var _ Lease = (*CacheLease)(nil)

// NewCacheLease creates a lease stored under key
func NewCacheLease(c cache.CacheService, key string, ttl time.Duration) *CacheLease {
	if key == "" {
		key = DefaultKey
	}
	return &CacheLease{
		cache: c,
		key:   key,
		ttl:   ttl,
		owner: ownerToken(),
		log:   logger.ForLease(),
	}
}

// TryAcquire adds the lease entry
func (l *CacheLease) TryAcquire() error {
	err := l.cache.Add(l.key, []byte(l.owner), l.ttl)
	if stderrors.Is(err, cache.ErrNotStored) {
		return ErrHeld
	}
	return err
}

// Release deletes the entry if it still holds this owner's token
func (l *CacheLease) Release() error {
	v, err := l.cache.Get(l.key)
	if stderrors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return err
	}
	if string(v) != l.owner {
		l.log.Warn().Str("key", l.key).Msg("Lease was taken over by another run, leaving it")
		return nil
	}
	return l.cache.Delete(l.key)
}
