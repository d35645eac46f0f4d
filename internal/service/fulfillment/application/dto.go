package application

import "github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"

// UpdateItemStatusRequest is the input for a single item status mutation.
// StatusToSet empty means "advance": the engine picks the next status from
// the item's current one. ReturnToInventory is only meaningful when the
// target is Canceled and is forwarded to the store API untouched.
type UpdateItemStatusRequest struct {
	StoreID           string            `json:"storeId"`
	OrderID           string            `json:"orderId"`
	OrderItemID       string            `json:"orderItemId"`
	UserID            string            `json:"userId"`
	StatusToSet       domain.ItemStatus `json:"statusToSet,omitempty"`
	ReturnToInventory bool              `json:"returnToInventory,omitempty"`
}

// FulfillOrderItemsRequest is the input for the bulk transition of every
// Unfulfilled or Backordered item of one order to Fulfilled.
type FulfillOrderItemsRequest struct {
	StoreID string `json:"storeId"`
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}
