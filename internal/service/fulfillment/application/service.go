package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/google/uuid"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/logger"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain/port"
)

// Service is the fulfillment mutation coordinator. It turns a dashboard
// "change this item's status" intent into a consistent, persisted state
// change: optimistic cache write, remote persistence through the store API,
// snapshot rollback on failure, cache invalidation on settlement.
//
// All outbound dependencies are ports; the composition root wires the
// concrete adapters.
type Service struct {
	cache    port.StoreCache
	storeAPI port.StoreAPI
	notifier port.NotificationProducer
	locker   port.OrderLocker
	tracer   trace.Tracer

	// refresh collapses concurrent authoritative refetches of the same
	// store after an invalidation.
	refresh singleflight.Group

	now func() time.Time
}

// NewService wires the coordinator with its outbound ports.
func NewService(cache port.StoreCache, storeAPI port.StoreAPI, notifier port.NotificationProducer, locker port.OrderLocker, tracer trace.Tracer) *Service {
	return &Service{
		cache:    cache,
		storeAPI: storeAPI,
		notifier: notifier,
		locker:   locker,
		tracer:   tracer,
		now:      time.Now,
	}
}

// UpdateOrderItemStatus applies one item transition.
//
// The target is req.StatusToSet when given, otherwise the engine's
// auto-advance from the item's current status. A target equal to the current
// status is a no-op: the mutation is skipped entirely so the recorded
// first-reached timestamp is never refreshed.
func (s *Service) UpdateOrderItemStatus(ctx context.Context, req *UpdateItemStatusRequest) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.UpdateOrderItemStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("store.id", req.StoreID),
		attribute.String("order.id", req.OrderID),
		attribute.String("order_item.id", req.OrderItemID),
	)

	if req.StatusToSet != "" && !domain.IsValidItemStatus(req.StatusToSet) {
		return nil, fmt.Errorf("status %q: %w", req.StatusToSet, domain.ErrInvalidStatus)
	}

	unlock, err := s.locker.Lock(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("acquire order lock: %w", err)
	}
	defer unlock()

	store, err := s.getStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	oi := store.FindOrder(req.OrderID)
	if oi < 0 {
		return nil, fmt.Errorf("order %s: %w", req.OrderID, domain.ErrOrderNotFound)
	}
	order := store.Orders[oi]

	ii := order.FindItem(req.OrderItemID)
	if ii < 0 {
		return nil, fmt.Errorf("item %s in order %s: %w", req.OrderItemID, req.OrderID, domain.ErrItemNotFound)
	}
	item := order.Items[ii]

	target := req.StatusToSet
	if target == "" {
		target = domain.NextStatus(item.Status.Current)
	}
	if target == item.Status.Current {
		span.AddEvent("redundant status set, skipped")
		return store, nil
	}

	updated := item.WithStatus(target, req.UserID, s.now())
	newOrder := order.WithItem(ii, updated)
	newStore := store.WithOrder(oi, newOrder)

	cmd := port.UpdateItemStatusCommand{
		StoreID:               req.StoreID,
		OrderID:               req.OrderID,
		Order:                 newOrder,
		OrderItems:            newOrder.Items,
		OrderItemID:           req.OrderItemID,
		UserID:                req.UserID,
		InventoryProductID:    item.InventoryProductID,
		InventoryProductSkuID: item.InventoryProductSkuID,
		OrderItemQuantity:     item.Quantity,
		StatusToSet:           target,
		ReturnToInventory:     req.ReturnToInventory,
	}

	result, err := s.mutate(ctx, store, &newStore, func(ctx context.Context) (*domain.Store, error) {
		return s.storeAPI.UpdateItemStatus(ctx, cmd)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "item status mutation failed")
		return nil, err
	}

	s.publish(ctx, &domain.ItemStatusChanged{
		EventID:        uuid.New().String(),
		StoreID:        req.StoreID,
		OrderID:        req.OrderID,
		OrderItemID:    req.OrderItemID,
		PreviousStatus: item.Status.Current,
		NewStatus:      target,
		OrderStatus:    newOrder.Status,
		UserID:         req.UserID,
		Quantity:       item.Quantity,
		OccurredAt:     s.now().UTC(),
	})

	return result, nil
}

// FulfillUnfulfilledOrderItems moves every Unfulfilled or Backordered item
// of the order to Fulfilled in a single remote round trip, with the same
// optimistic-update and rollback contract as the single-item path. The
// order's aggregate status is recomputed once over the whole new item set.
func (s *Service) FulfillUnfulfilledOrderItems(ctx context.Context, req *FulfillOrderItemsRequest) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.FulfillUnfulfilledOrderItems")
	defer span.End()
	span.SetAttributes(
		attribute.String("store.id", req.StoreID),
		attribute.String("order.id", req.OrderID),
	)

	unlock, err := s.locker.Lock(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("acquire order lock: %w", err)
	}
	defer unlock()

	store, err := s.getStore(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	oi := store.FindOrder(req.OrderID)
	if oi < 0 {
		return nil, fmt.Errorf("order %s: %w", req.OrderID, domain.ErrOrderNotFound)
	}
	order := store.Orders[oi]

	now := s.now()
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	var changed []domain.OrderItem
	var previous []domain.ItemStatus
	for i, item := range items {
		switch item.Status.Current {
		case domain.ItemStatusUnfulfilled, domain.ItemStatusBackordered:
			items[i] = item.WithStatus(domain.ItemStatusFulfilled, req.UserID, now)
			changed = append(changed, items[i])
			previous = append(previous, item.Status.Current)
		}
	}
	if len(changed) == 0 {
		span.AddEvent("no eligible items, skipped")
		return store, nil
	}

	newOrder := order.WithItems(items)
	newStore := store.WithOrder(oi, newOrder)

	cmd := port.FulfillOrderItemsCommand{
		StoreID:    req.StoreID,
		OrderID:    req.OrderID,
		Order:      newOrder,
		OrderItems: newOrder.Items,
		UserID:     req.UserID,
	}

	result, err := s.mutate(ctx, store, &newStore, func(ctx context.Context) (*domain.Store, error) {
		return s.storeAPI.FulfillOrderItems(ctx, cmd)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bulk fulfillment failed")
		return nil, err
	}

	occurredAt := s.now().UTC()
	for i, item := range changed {
		s.publish(ctx, &domain.ItemStatusChanged{
			EventID:        uuid.New().String(),
			StoreID:        req.StoreID,
			OrderID:        req.OrderID,
			OrderItemID:    item.ID,
			PreviousStatus: previous[i],
			NewStatus:      domain.ItemStatusFulfilled,
			OrderStatus:    newOrder.Status,
			UserID:         req.UserID,
			Quantity:       item.Quantity,
			Bulk:           true,
			OccurredAt:     occurredAt,
		})
	}

	return result, nil
}

// GetStore reads the store through the cache, refetching from the store API
// on a miss.
func (s *Service) GetStore(ctx context.Context, storeID string) (*domain.Store, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.GetStore")
	defer span.End()
	return s.getStore(ctx, storeID)
}

// mutate runs the optimistic-update protocol around a remote call: write the
// speculative snapshot to the cache, issue the call, restore the captured
// prior snapshot if it fails, and invalidate the cache entry on settlement
// either way so the next read reconciles with the authoritative document.
func (s *Service) mutate(ctx context.Context, prior, speculative *domain.Store, call func(context.Context) (*domain.Store, error)) (*domain.Store, error) {
	if err := s.cache.Set(ctx, speculative); err != nil {
		// Cache trouble must not block the mutation itself.
		logger.Ctx(ctx).Warn().Err(err).Str("store_id", speculative.ID).Msg("optimistic cache write failed")
	}

	result, err := call(ctx)
	if err != nil {
		if restoreErr := s.cache.Set(ctx, prior); restoreErr != nil {
			logger.Ctx(ctx).Error().Err(restoreErr).Str("store_id", prior.ID).Msg("cache rollback failed")
		}
		s.invalidate(ctx, prior.ID)
		return nil, err
	}

	s.invalidate(ctx, prior.ID)
	return result, nil
}

func (s *Service) invalidate(ctx context.Context, storeID string) {
	if err := s.cache.Invalidate(ctx, storeID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("store_id", storeID).Msg("cache invalidation failed")
	}
}

func (s *Service) getStore(ctx context.Context, storeID string) (*domain.Store, error) {
	cached, err := s.cache.Get(ctx, storeID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("store_id", storeID).Msg("cache read failed, falling through")
	}
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.refresh.Do(storeID, func() (interface{}, error) {
		store, err := s.storeAPI.FetchStore(ctx, storeID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, store); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("store_id", storeID).Msg("cache fill failed")
		}
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Store), nil
}

func (s *Service) publish(ctx context.Context, event *domain.ItemStatusChanged) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishItemStatusChanged(ctx, event); err != nil {
		// The mutation already settled; a lost notification is log-worthy
		// but not an error for the caller.
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", event.OrderID).
			Str("order_item_id", event.OrderItemID).
			Msg("failed to publish item status change")
	}
}
