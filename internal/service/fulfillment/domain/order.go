package domain

import "time"

// StatusEntry records who moved an item into a status and when. A zero entry
// means the status has never been reached.
type StatusEntry struct {
	User      string `json:"user,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IsSet reports whether the entry has been recorded.
func (e StatusEntry) IsSet() bool { return e.Timestamp != "" }

// StatusMeta is the append-only transition history of an item. Once a status
// has been reached its entry is never cleared, even if the item later moves
// on. Keys are the ItemStatus values.
type StatusMeta map[ItemStatus]StatusEntry

// ItemState is the current status of an order item plus its history.
type ItemState struct {
	Current ItemStatus `json:"current"`
	Meta    StatusMeta `json:"meta"`
}

// OrderItem is one line item within an order. It belongs to exactly one
// order and carries its own fulfillment status independent of its siblings.
type OrderItem struct {
	ID                    string    `json:"id"`
	SKU                   string    `json:"sku"`
	Name                  string    `json:"name"`
	InventoryProductID    string    `json:"inventoryProductId"`
	InventoryProductSkuID string    `json:"inventoryProductSkuId"`
	Quantity              int       `json:"quantity"`
	Price                 int       `json:"price"`
	Status                ItemState `json:"status"`
}

// WithStatus returns a copy of the item moved to target, stamped with the
// acting user and time. The history entry for target is written; every other
// entry is left untouched. Setting the status the item already has is a
// no-op and does not refresh the recorded timestamp.
func (i OrderItem) WithStatus(target ItemStatus, user string, at time.Time) OrderItem {
	if target == i.Status.Current {
		return i
	}
	meta := make(StatusMeta, len(i.Status.Meta)+1)
	for k, v := range i.Status.Meta {
		meta[k] = v
	}
	meta[target] = StatusEntry{User: user, Timestamp: at.UTC().Format(time.RFC3339)}
	i.Status = ItemState{Current: target, Meta: meta}
	return i
}

// Order is a customer purchase: an ordered sequence of items plus an
// aggregate status derived from them. The item order is display order only.
type Order struct {
	ID         string      `json:"orderId"`
	StoreID    string      `json:"storeId"`
	CustomerID string      `json:"customerId"`
	Status     OrderStatus `json:"orderStatus"`
	// Printed is a presentational flag layered over Unfulfilled, not a
	// distinct status.
	Printed   bool        `json:"printed"`
	Canceled  bool        `json:"canceled"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FindItem returns the index of the item with the given id, or -1.
func (o *Order) FindItem(itemID string) int {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// WithItem returns a copy of the order with exactly the item at idx replaced
// and the aggregate status re-derived over the new item set.
func (o Order) WithItem(idx int, item OrderItem) Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	items[idx] = item
	o.Items = items
	o.Status = o.deriveStatus()
	return o
}

// WithItems returns a copy of the order with the whole item list replaced
// and the aggregate status derived once over the new set.
func (o Order) WithItems(items []OrderItem) Order {
	o.Items = items
	o.Status = o.deriveStatus()
	return o
}

// Cancel force-cancels the whole order: every item moves to Canceled
// regardless of its prior state and the aggregate is pinned to Canceled.
func (o Order) Cancel(user string, at time.Time) Order {
	items := make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = item.WithStatus(ItemStatusCanceled, user, at)
	}
	o.Items = items
	o.Canceled = true
	o.Status = OrderStatusCanceled
	return o
}

func (o Order) deriveStatus() OrderStatus {
	if o.Canceled {
		return OrderStatusCanceled
	}
	return DeriveOrderStatus(o.Items)
}

// Store owns orders and the denormalized per-status order counts the
// dashboard filter tabs read.
type Store struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Slug              string              `json:"slug"`
	Orders            []Order             `json:"orders"`
	OrderStatusTotals map[OrderStatus]int `json:"orderStatusTotals"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// FindOrder returns the index of the order with the given id, or -1.
func (s *Store) FindOrder(orderID string) int {
	for i := range s.Orders {
		if s.Orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

// WithOrder returns a copy of the store with exactly the order at idx
// replaced and the status totals recomputed from scratch. Totals are never
// patched incrementally; several orders' aggregates can flip on one item
// change and incremental counts drift.
func (s Store) WithOrder(idx int, order Order) Store {
	orders := make([]Order, len(s.Orders))
	copy(orders, s.Orders)
	orders[idx] = order
	s.Orders = orders
	s.OrderStatusTotals = RecomputeOrderStatusTotals(orders)
	return s
}
