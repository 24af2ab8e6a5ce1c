package chat

import "sync"

// pairLocks serializes message persistence per conversation pair while
// letting unrelated conversations proceed in parallel. Entries are
// refcounted so the map does not grow with every pair ever seen.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

func (p *pairLocks) lock(key string) {
	p.mu.Lock()
	entry, ok := p.locks[key]
	if !ok {
		entry = &pairLock{}
		p.locks[key] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.Lock()
}

func (p *pairLocks) unlock(key string) {
	p.mu.Lock()
	entry := p.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(p.locks, key)
	}
	p.mu.Unlock()

	entry.Unlock()
}
