package swap

import "sync"

// keyedLock serializes state-mutating operations per swap identifier while
// letting operations on different identifiers run in parallel. Entries are
// reference counted so the map does not grow with the number of swaps ever
// seen.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{
		locks: make(map[string]*lockEntry),
	}
}

func (k *keyedLock) lock(id string) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedLock) unlock(id string) {
	k.mu.Lock()
	entry := k.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
