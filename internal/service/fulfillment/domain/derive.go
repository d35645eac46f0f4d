package domain

// DeriveOrderStatus reduces an order's item statuses to the aggregate order
// status. It is a pure function and must be recomputed in full after every
// item change; the precedence rules below can flip together (the last
// Unfulfilled item becoming Fulfilled jumps the order straight past
// PartiallyShipped), so patching the previous aggregate is never safe.
//
// Precedence, first match wins:
//  1. every item Shipped or Canceled, at least one Shipped -> Shipped
//  2. every item Canceled -> Canceled
//  3. every item Fulfilled, Shipped or Canceled, at least one Fulfilled -> Fulfilled
//  4. at least one Shipped alongside an earlier-state item -> PartiallyShipped
//  5. otherwise -> Unfulfilled
//
// An empty item list derives Unfulfilled; no items are never vacuously done.
func DeriveOrderStatus(items []OrderItem) OrderStatus {
	if len(items) == 0 {
		return OrderStatusUnfulfilled
	}

	var shipped, canceled, fulfilled int
	for _, item := range items {
		switch item.Status.Current {
		case ItemStatusShipped:
			shipped++
		case ItemStatusCanceled:
			canceled++
		case ItemStatusFulfilled:
			fulfilled++
		}
	}
	open := len(items) - shipped - canceled - fulfilled // Unfulfilled or Backordered

	switch {
	case open == 0 && fulfilled == 0 && shipped > 0:
		return OrderStatusShipped
	case canceled == len(items):
		return OrderStatusCanceled
	case open == 0 && fulfilled > 0:
		return OrderStatusFulfilled
	case shipped > 0:
		return OrderStatusPartiallyShipped
	default:
		return OrderStatusUnfulfilled
	}
}

// RecomputeOrderStatusTotals rebuilds the per-status order counts from the
// full order list. Every status gets a bucket, zero or not.
func RecomputeOrderStatusTotals(orders []Order) map[OrderStatus]int {
	totals := make(map[OrderStatus]int, len(OrderStatuses))
	for _, s := range OrderStatuses {
		totals[s] = 0
	}
	for _, o := range orders {
		totals[o.Status]++
	}
	return totals
}
