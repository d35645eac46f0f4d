package domain

import "context"

// StoreRepository is the persistence interface for the store aggregate. It
// lives in the domain layer and is implemented by the store API's
// infrastructure.
type StoreRepository interface {
	// FindByID loads a store with its orders and items.
	FindByID(ctx context.Context, id string) (*Store, error)

	// Save persists the full store snapshot, orders and totals included.
	Save(ctx context.Context, store *Store) error
}

// InventoryRepository adjusts inventory stock levels. Only the
// return-to-stock path is needed here; reservation at checkout happens
// elsewhere.
type InventoryRepository interface {
	// ReturnToStock releases quantity units of the SKU back to the
	// inventory pool.
	ReturnToStock(ctx context.Context, inventoryProductID, skuID string, quantity int) error
}
