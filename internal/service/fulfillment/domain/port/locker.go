package port

import "context"

// OrderLocker serializes status mutations per order id. Two rapid clicks on
// different items of the same order must not race in the cache; the second
// mutation waits and applies against the result of the first.
type OrderLocker interface {
	// Lock blocks until the order lock is held and returns an unlock
	// function. The unlock function must be called exactly once.
	Lock(ctx context.Context, orderID string) (unlock func(), err error)
}
