package fetch

import (
	"sync"

	"mapstitch/internal/cache"
)

// keyedLocks serializes work per tile key. Entries are reference counted
// and removed once the last holder releases, so the map does not grow with
// the number of tiles ever fetched.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[cache.TileKey]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{
		locks: make(map[cache.TileKey]*lockEntry),
	}
}

func (k *keyedLocks) lock(key cache.TileKey) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
