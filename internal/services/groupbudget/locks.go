package groupbudget

import (
	"context"
	"sync"
)

// budgetLocks serializes mutations per group budget. Entries are dropped
// once nobody holds or waits on them.
type budgetLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func newBudgetLocks() *budgetLocks {
	return &budgetLocks{entries: make(map[string]*lockEntry)}
}

// acquire blocks until the lock for id is held or ctx is done. The returned
// func releases it.
func (l *budgetLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.drop(id, e)
			})
		}, nil
	case <-ctx.Done():
		l.drop(id, e)
		return nil, ctx.Err()
	}
}

func (l *budgetLocks) drop(id string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

func (l *budgetLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
