package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain/port"
)

// Service is the authoritative side of the fulfillment flow. It re-applies
// the status transition engine against the persisted store, so a replayed or
// duplicated command converges on the same state instead of corrupting the
// history, and it owns the return-to-inventory side effect on cancellation.
type Service struct {
	stores    domain.StoreRepository
	inventory domain.InventoryRepository
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(stores domain.StoreRepository, inventory domain.InventoryRepository, tracer trace.Tracer) *Service {
	return &Service{stores: stores, inventory: inventory, tracer: tracer, now: time.Now}
}

// GetStore loads the store with freshly derived order status totals.
func (s *Service) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "store.GetStore")
	defer span.End()
	span.SetAttributes(attribute.String("store.id", storeID))
	return s.stores.FindByID(ctx, storeID)
}

// ApplyItemStatus applies one item transition. The command's target status
// is applied against the persisted item, not trusted from the client's
// snapshot: if the item already carries the target the application is a
// no-op and the history keeps its original timestamps.
func (s *Service) ApplyItemStatus(ctx context.Context, cmd *port.UpdateItemStatusCommand) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "store.ApplyItemStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("store.id", cmd.StoreID),
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order_item.id", cmd.OrderItemID),
		attribute.String("status.target", string(cmd.StatusToSet)),
	)

	if !domain.IsValidItemStatus(cmd.StatusToSet) {
		return nil, fmt.Errorf("status %q: %w", cmd.StatusToSet, domain.ErrInvalidStatus)
	}

	store, err := s.stores.FindByID(ctx, cmd.StoreID)
	if err != nil {
		return nil, err
	}
	oi := store.FindOrder(cmd.OrderID)
	if oi < 0 {
		return nil, fmt.Errorf("order %s: %w", cmd.OrderID, domain.ErrOrderNotFound)
	}
	order := store.Orders[oi]
	ii := order.FindItem(cmd.OrderItemID)
	if ii < 0 {
		return nil, fmt.Errorf("item %s in order %s: %w", cmd.OrderItemID, cmd.OrderID, domain.ErrItemNotFound)
	}
	item := order.Items[ii]

	if item.Status.Current == cmd.StatusToSet {
		span.AddEvent("target equals current, idempotent no-op")
		return store, nil
	}

	updated := item.WithStatus(cmd.StatusToSet, cmd.UserID, s.now())
	newOrder := order.WithItem(ii, updated)
	newStore := store.WithOrder(oi, newOrder)

	if err := s.stores.Save(ctx, &newStore); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}

	if cmd.StatusToSet == domain.ItemStatusCanceled && cmd.ReturnToInventory {
		s.returnToStock(ctx, cmd.InventoryProductID, cmd.InventoryProductSkuID, cmd.OrderItemQuantity)
	}

	return &newStore, nil
}

// ApplyBulkFulfillment moves every Unfulfilled or Backordered item of the
// order to Fulfilled and recomputes the aggregate once.
func (s *Service) ApplyBulkFulfillment(ctx context.Context, cmd *port.FulfillOrderItemsCommand) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "store.ApplyBulkFulfillment")
	defer span.End()
	span.SetAttributes(
		attribute.String("store.id", cmd.StoreID),
		attribute.String("order.id", cmd.OrderID),
	)

	store, err := s.stores.FindByID(ctx, cmd.StoreID)
	if err != nil {
		return nil, err
	}
	oi := store.FindOrder(cmd.OrderID)
	if oi < 0 {
		return nil, fmt.Errorf("order %s: %w", cmd.OrderID, domain.ErrOrderNotFound)
	}
	order := store.Orders[oi]

	now := s.now()
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	changed := 0
	for i, item := range items {
		switch item.Status.Current {
		case domain.ItemStatusUnfulfilled, domain.ItemStatusBackordered:
			items[i] = item.WithStatus(domain.ItemStatusFulfilled, cmd.UserID, now)
			changed++
		}
	}
	if changed == 0 {
		span.AddEvent("no eligible items, idempotent no-op")
		return store, nil
	}

	newOrder := order.WithItems(items)
	newStore := store.WithOrder(oi, newOrder)

	if err := s.stores.Save(ctx, &newStore); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("items.fulfilled", changed))
	return &newStore, nil
}

// CancelOrder force-cancels a whole order: every item moves to Canceled and
// the aggregate is pinned to Canceled regardless of item states. With
// returnToInventory each canceled item's quantity goes back to its SKU.
func (s *Service) CancelOrder(ctx context.Context, storeID, orderID, userID string, returnToInventory bool) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "store.CancelOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("store.id", storeID),
		attribute.String("order.id", orderID),
	)

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	oi := store.FindOrder(orderID)
	if oi < 0 {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	order := store.Orders[oi]

	// Items already canceled keep their original cancellation entry and
	// never release stock twice.
	var toReturn []domain.OrderItem
	if returnToInventory {
		for _, item := range order.Items {
			if item.Status.Current != domain.ItemStatusCanceled {
				toReturn = append(toReturn, item)
			}
		}
	}

	newOrder := order.Cancel(userID, s.now())
	newStore := store.WithOrder(oi, newOrder)

	if err := s.stores.Save(ctx, &newStore); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}

	for _, item := range toReturn {
		s.returnToStock(ctx, item.InventoryProductID, item.InventoryProductSkuID, item.Quantity)
	}

	return &newStore, nil
}

func (s *Service) returnToStock(ctx context.Context, productID, skuID string, quantity int) {
	if err := s.inventory.ReturnToStock(ctx, productID, skuID, quantity); err != nil {
		// The status change already committed; the stock adjustment is
		// not allowed to fail the mutation after the fact.
		logger.Ctx(ctx).Error().Err(err).
			Str("inventory_product_id", productID).
			Str("inventory_sku_id", skuID).
			Int("quantity", quantity).
			Msg("failed to return canceled quantity to stock")
	}
}
