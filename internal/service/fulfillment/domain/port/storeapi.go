package port

import (
	"context"

	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// UpdateItemStatusCommand carries everything the store API needs to apply
// and validate a single item transition server-side.
type UpdateItemStatusCommand struct {
	StoreID               string             `json:"storeId"`
	OrderID               string             `json:"orderId"`
	Order                 domain.Order       `json:"order"`
	OrderItems            []domain.OrderItem `json:"orderItems"`
	OrderItemID           string             `json:"orderItemId"`
	UserID                string             `json:"userId"`
	InventoryProductID    string             `json:"inventoryProductId"`
	InventoryProductSkuID string             `json:"inventoryProductSkuId"`
	OrderItemQuantity     int                `json:"orderItemQuantity"`
	StatusToSet           domain.ItemStatus  `json:"statusToSet,omitempty"`
	ReturnToInventory     bool               `json:"returnToInventory,omitempty"`
}

// FulfillOrderItemsCommand is the bulk variant: every Unfulfilled or
// Backordered item of the order moves to Fulfilled in one round trip.
type FulfillOrderItemsCommand struct {
	StoreID    string             `json:"storeId"`
	OrderID    string             `json:"orderId"`
	Order      domain.Order       `json:"order"`
	OrderItems []domain.OrderItem `json:"orderItems"`
	UserID     string             `json:"userId"`
}

// StoreAPI is the outbound port for the authoritative store service. All
// persistence lives behind it; the coordinator never touches the database.
type StoreAPI interface {
	// FetchStore reads the authoritative store document.
	FetchStore(ctx context.Context, storeID string) (*domain.Store, error)

	// UpdateItemStatus applies one item transition and returns the updated
	// store document as the server now sees it.
	UpdateItemStatus(ctx context.Context, cmd UpdateItemStatusCommand) (*domain.Store, error)

	// FulfillOrderItems applies the bulk fulfillment and returns the
	// updated store document.
	FulfillOrderItems(ctx context.Context, cmd FulfillOrderItemsCommand) (*domain.Store, error)
}
