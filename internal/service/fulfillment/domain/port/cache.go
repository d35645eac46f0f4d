package port

import (
	"context"

	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// StoreCache is the outbound port for the dashboard's store snapshot cache.
// It holds whole Store documents keyed by store id; there is no schema
// beyond that. Get returns (nil, nil) on a clean miss.
type StoreCache interface {
	Get(ctx context.Context, storeID string) (*domain.Store, error)
	Set(ctx context.Context, store *domain.Store) error
	Invalidate(ctx context.Context, storeID string) error
}
