package domain

import "time"

// ItemStatusChanged is published after a status mutation has been accepted
// by the store API. Consumers drive dashboard notifications off it.
type ItemStatusChanged struct {
	EventID        string      `json:"eventId"`
	StoreID        string      `json:"storeId"`
	OrderID        string      `json:"orderId"`
	OrderItemID    string      `json:"orderItemId"`
	PreviousStatus ItemStatus  `json:"previousStatus"`
	NewStatus      ItemStatus  `json:"newStatus"`
	OrderStatus    OrderStatus `json:"orderStatus"`
	UserID         string      `json:"userId"`
	Quantity       int         `json:"quantity"`
	Bulk           bool        `json:"bulk,omitempty"`
	OccurredAt     time.Time   `json:"occurredAt"`
}
