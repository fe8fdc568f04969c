package health

import "sync"

// pigLocks serializes window admission per pig within this process.
type pigLocks struct {
	mu    sync.Mutex
	locks map[string]*pigLock
}

type pigLock struct {
	mu   sync.Mutex
	refs int
}

func newPigLocks() *pigLocks {
	return &pigLocks{locks: make(map[string]*pigLock)}
}

// lock blocks until pigID is free and returns the matching unlock.
func (p *pigLocks) lock(pigID string) func() {
	p.mu.Lock()
	l, ok := p.locks[pigID]
	if !ok {
		l = &pigLock{}
		p.locks[pigID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, pigID)
		}
		p.mu.Unlock()
	}
}
