package infrastructure

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOrderLockerSerializesSameOrder(t *testing.T) {
	locker := NewLocalOrderLocker()

	const workers = 20
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "order-1")
			require.NoError(t, err)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestLocalOrderLockerIndependentOrders(t *testing.T) {
	locker := NewLocalOrderLocker()

	unlockA, err := locker.Lock(context.Background(), "order-a")
	require.NoError(t, err)
	defer unlockA()

	// A different order's lock is acquirable while order-a is held.
	done := make(chan struct{})
	go func() {
		unlockB, err := locker.Lock(context.Background(), "order-b")
		assert.NoError(t, err)
		unlockB()
		close(done)
	}()
	<-done
}

func TestLocalOrderLockerReleasesEntry(t *testing.T) {
	locker := NewLocalOrderLocker()

	unlock, err := locker.Lock(context.Background(), "order-1")
	require.NoError(t, err)
	unlock()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Empty(t, locker.locks)
}
