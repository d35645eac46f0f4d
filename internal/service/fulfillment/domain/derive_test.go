package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func itemsWith(statuses ...ItemStatus) []OrderItem {
	items := make([]OrderItem, len(statuses))
	for i, s := range statuses {
		items[i] = OrderItem{ID: string(rune('a' + i)), Status: ItemState{Current: s}}
	}
	return items
}

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ItemStatus
		want     OrderStatus
	}{
		{"all unfulfilled", []ItemStatus{ItemStatusUnfulfilled, ItemStatusUnfulfilled}, OrderStatusUnfulfilled},
		{"one shipped one open", []ItemStatus{ItemStatusShipped, ItemStatusUnfulfilled}, OrderStatusPartiallyShipped},
		{"all shipped", []ItemStatus{ItemStatusShipped, ItemStatusShipped}, OrderStatusShipped},
		{"fulfilled beside shipped", []ItemStatus{ItemStatusFulfilled, ItemStatusShipped}, OrderStatusFulfilled},
		{"all canceled", []ItemStatus{ItemStatusCanceled, ItemStatusCanceled}, OrderStatusCanceled},
		{"shipped beside canceled", []ItemStatus{ItemStatusShipped, ItemStatusCanceled}, OrderStatusShipped},
		{"fulfilled beside canceled", []ItemStatus{ItemStatusFulfilled, ItemStatusCanceled}, OrderStatusFulfilled},
		{"backordered counts as open", []ItemStatus{ItemStatusShipped, ItemStatusBackordered}, OrderStatusPartiallyShipped},
		{"backordered alone", []ItemStatus{ItemStatusBackordered}, OrderStatusUnfulfilled},
		{"fulfilled alongside open", []ItemStatus{ItemStatusFulfilled, ItemStatusUnfulfilled}, OrderStatusUnfulfilled},
		{"single shipped", []ItemStatus{ItemStatusShipped}, OrderStatusShipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOrderStatus(itemsWith(tt.statuses...)))
		})
	}
}

func TestDeriveOrderStatusEmptyOrder(t *testing.T) {
	assert.Equal(t, OrderStatusUnfulfilled, DeriveOrderStatus(nil))
	assert.Equal(t, OrderStatusUnfulfilled, DeriveOrderStatus([]OrderItem{}))
}

// The last open item flipping to Fulfilled can jump the aggregate from
// PartiallyShipped straight to Fulfilled without passing through any
// intermediate state. Patching the previous aggregate would miss this.
func TestDeriveOrderStatusJumpsOnLastOpenItem(t *testing.T) {
	items := itemsWith(ItemStatusShipped, ItemStatusUnfulfilled)
	assert.Equal(t, OrderStatusPartiallyShipped, DeriveOrderStatus(items))

	items[1] = items[1].WithStatus(ItemStatusFulfilled, "u1", testTime())
	assert.Equal(t, OrderStatusFulfilled, DeriveOrderStatus(items))
}

func TestRecomputeOrderStatusTotals(t *testing.T) {
	orders := []Order{
		{ID: "o1", Status: OrderStatusUnfulfilled},
		{ID: "o2", Status: OrderStatusUnfulfilled},
		{ID: "o3", Status: OrderStatusShipped},
	}
	totals := RecomputeOrderStatusTotals(orders)

	assert.Equal(t, 2, totals[OrderStatusUnfulfilled])
	assert.Equal(t, 1, totals[OrderStatusShipped])
	// Every status gets a bucket, even at zero.
	assert.Len(t, totals, len(OrderStatuses))
	assert.Equal(t, 0, totals[OrderStatusCanceled])

	sum := 0
	for _, n := range totals {
		sum += n
	}
	assert.Equal(t, len(orders), sum)
}
