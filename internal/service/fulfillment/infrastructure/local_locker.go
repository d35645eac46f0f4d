package infrastructure

import (
	"context"
	"sync"
)

// LocalOrderLocker implements port.OrderLocker with in-process mutexes keyed
// by order id. Sufficient for a single coordinator instance; multi-instance
// deployments use the ZooKeeper locker instead.
type LocalOrderLocker struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocalOrderLocker() *LocalOrderLocker {
	return &LocalOrderLocker{locks: make(map[string]*orderLock)}
}

func (l *LocalOrderLocker) Lock(_ context.Context, orderID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &orderLock{}
		l.locks[orderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}, nil
}
