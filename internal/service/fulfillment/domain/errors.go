package domain

import "errors"

var (
	// ErrOrderNotFound is returned when a store does not contain the
	// requested order.
	ErrOrderNotFound = errors.New("order not found in store")

	// ErrItemNotFound is returned when an order does not contain the
	// requested item. Callers pass live item lists; a miss is a
	// precondition violation, not something to silently skip.
	ErrItemNotFound = errors.New("order item not found in order")

	// ErrStoreNotFound is returned by repositories and the store API when
	// the store id is unknown.
	ErrStoreNotFound = errors.New("store not found")

	// ErrInvalidStatus is returned when a caller supplies a status value
	// outside the known set.
	ErrInvalidStatus = errors.New("invalid order item status")
)
