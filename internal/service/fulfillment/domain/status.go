package domain

// ItemStatus is the fulfillment status of a single order item.
type ItemStatus string

const (
	ItemStatusUnfulfilled ItemStatus = "Unfulfilled"
	ItemStatusBackordered ItemStatus = "Backordered"
	ItemStatusFulfilled   ItemStatus = "Fulfilled"
	ItemStatusShipped     ItemStatus = "Shipped"
	ItemStatusCanceled    ItemStatus = "Canceled"
)

// NextStatus returns the status an item advances to when the operator clicks
// through without picking an explicit target. Shipped is terminal under
// auto-advance. Backordered and Canceled never advance on their own; leaving
// them requires an explicit target.
func NextStatus(current ItemStatus) ItemStatus {
	switch current {
	case ItemStatusUnfulfilled:
		return ItemStatusFulfilled
	case ItemStatusFulfilled:
		return ItemStatusShipped
	default:
		return current
	}
}

// IsValidItemStatus reports whether s is one of the five known statuses.
func IsValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusUnfulfilled, ItemStatusBackordered, ItemStatusFulfilled,
		ItemStatusShipped, ItemStatusCanceled:
		return true
	}
	return false
}

// OrderStatus is the aggregate status of a whole order, derived from its
// items' statuses.
type OrderStatus string

const (
	OrderStatusUnfulfilled      OrderStatus = "Unfulfilled"
	OrderStatusFulfilled        OrderStatus = "Fulfilled"
	OrderStatusPartiallyShipped OrderStatus = "PartiallyShipped"
	OrderStatusShipped          OrderStatus = "Shipped"
	OrderStatusCanceled         OrderStatus = "Canceled"
)

// OrderStatuses lists every aggregate status. Used to build complete
// orderStatusTotals maps so the dashboard filter tabs always have a bucket.
var OrderStatuses = []OrderStatus{
	OrderStatusUnfulfilled,
	OrderStatusFulfilled,
	OrderStatusPartiallyShipped,
	OrderStatusShipped,
	OrderStatusCanceled,
}
