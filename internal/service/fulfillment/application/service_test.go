package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain/port"
)

type fakeCache struct {
	store       *domain.Store
	sets        []domain.Store
	invalidated []string
	getErr      error
	setErr      error
}

func (c *fakeCache) Get(ctx context.Context, storeID string) (*domain.Store, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.store, nil
}

func (c *fakeCache) Set(ctx context.Context, store *domain.Store) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.sets = append(c.sets, *store)
	c.store = store
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, storeID string) error {
	c.invalidated = append(c.invalidated, storeID)
	c.store = nil
	return nil
}

type fakeStoreAPI struct {
	fetched     []string
	fetchResult *domain.Store
	fetchErr    error

	updateCmds []port.UpdateItemStatusCommand
	bulkCmds   []port.FulfillOrderItemsCommand
	result     *domain.Store
	callErr    error
}

func (a *fakeStoreAPI) FetchStore(ctx context.Context, storeID string) (*domain.Store, error) {
	a.fetched = append(a.fetched, storeID)
	return a.fetchResult, a.fetchErr
}

func (a *fakeStoreAPI) UpdateItemStatus(ctx context.Context, cmd port.UpdateItemStatusCommand) (*domain.Store, error) {
	a.updateCmds = append(a.updateCmds, cmd)
	return a.result, a.callErr
}

func (a *fakeStoreAPI) FulfillOrderItems(ctx context.Context, cmd port.FulfillOrderItemsCommand) (*domain.Store, error) {
	a.bulkCmds = append(a.bulkCmds, cmd)
	return a.result, a.callErr
}

type fakeNotifier struct {
	events []*domain.ItemStatusChanged
	err    error
}

func (n *fakeNotifier) PublishItemStatusChanged(ctx context.Context, event *domain.ItemStatusChanged) error {
	n.events = append(n.events, event)
	return n.err
}

type fakeLocker struct {
	locked   []string
	unlocked int
}

func (l *fakeLocker) Lock(ctx context.Context, orderID string) (func(), error) {
	l.locked = append(l.locked, orderID)
	return func() { l.unlocked++ }, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
}

func testStore() *domain.Store {
	return &domain.Store{
		ID: "store-1",
		Orders: []domain.Order{
			{
				ID:      "order-1",
				StoreID: "store-1",
				Status:  domain.OrderStatusUnfulfilled,
				Items: []domain.OrderItem{
					{
						ID:                    "item-1",
						SKU:                   "TSHIRT-M",
						InventoryProductID:    "prod-1",
						InventoryProductSkuID: "sku-1",
						Quantity:              3,
						Status:                domain.ItemState{Current: domain.ItemStatusUnfulfilled},
					},
					{
						ID:       "item-2",
						Quantity: 1,
						Status:   domain.ItemState{Current: domain.ItemStatusBackordered},
					},
				},
			},
		},
		OrderStatusTotals: map[domain.OrderStatus]int{domain.OrderStatusUnfulfilled: 1},
	}
}

func newTestService(cache port.StoreCache, api port.StoreAPI, notifier port.NotificationProducer, locker port.OrderLocker) *Service {
	s := NewService(cache, api, notifier, locker, noop.NewTracerProvider().Tracer("test"))
	s.now = fixedNow
	return s
}

func TestUpdateOrderItemStatusAutoAdvance(t *testing.T) {
	store := testStore()
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{result: testStore()}
	notifier := &fakeNotifier{}
	locker := &fakeLocker{}
	svc := newTestService(cache, api, notifier, locker)

	result, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Same(t, api.result, result)

	require.Len(t, api.updateCmds, 1)
	cmd := api.updateCmds[0]
	assert.Equal(t, domain.ItemStatusFulfilled, cmd.StatusToSet)
	assert.Equal(t, "prod-1", cmd.InventoryProductID)
	assert.Equal(t, "sku-1", cmd.InventoryProductSkuID)
	assert.Equal(t, 3, cmd.OrderItemQuantity)
	assert.Equal(t, domain.ItemStatusFulfilled, cmd.Order.Items[0].Status.Current)

	assert.Equal(t, []string{"order-1"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)

	require.Len(t, notifier.events, 1)
	event := notifier.events[0]
	assert.Equal(t, domain.ItemStatusUnfulfilled, event.PreviousStatus)
	assert.Equal(t, domain.ItemStatusFulfilled, event.NewStatus)
	assert.False(t, event.Bulk)
	assert.NotEmpty(t, event.EventID)
}

func TestUpdateOrderItemStatusExplicitTarget(t *testing.T) {
	cache := &fakeCache{store: testStore()}
	api := &fakeStoreAPI{result: testStore()}
	svc := newTestService(cache, api, &fakeNotifier{}, &fakeLocker{})

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-2", UserID: "u1",
		StatusToSet: domain.ItemStatusCanceled, ReturnToInventory: true,
	})
	require.NoError(t, err)

	require.Len(t, api.updateCmds, 1)
	assert.Equal(t, domain.ItemStatusCanceled, api.updateCmds[0].StatusToSet)
	assert.True(t, api.updateCmds[0].ReturnToInventory)
}

func TestUpdateOrderItemStatusRedundantTargetSkips(t *testing.T) {
	store := testStore()
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{}
	notifier := &fakeNotifier{}
	svc := newTestService(cache, api, notifier, &fakeLocker{})

	result, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1", UserID: "u1",
		StatusToSet: domain.ItemStatusUnfulfilled,
	})
	require.NoError(t, err)
	assert.Same(t, store, result)
	assert.Empty(t, api.updateCmds)
	assert.Empty(t, cache.sets)
	assert.Empty(t, cache.invalidated)
	assert.Empty(t, notifier.events)
}

func TestUpdateOrderItemStatusInvalidTarget(t *testing.T) {
	svc := newTestService(&fakeCache{store: testStore()}, &fakeStoreAPI{}, &fakeNotifier{}, &fakeLocker{})

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1", UserID: "u1",
		StatusToSet: "Pending",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateOrderItemStatusUnknownOrder(t *testing.T) {
	api := &fakeStoreAPI{}
	svc := newTestService(&fakeCache{store: testStore()}, api, &fakeNotifier{}, &fakeLocker{})

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-9", OrderItemID: "item-1", UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Empty(t, api.updateCmds)
}

func TestUpdateOrderItemStatusUnknownItem(t *testing.T) {
	api := &fakeStoreAPI{}
	svc := newTestService(&fakeCache{store: testStore()}, api, &fakeNotifier{}, &fakeLocker{})

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-9", UserID: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Empty(t, api.updateCmds)
}

func TestUpdateOrderItemStatusOptimisticThenInvalidate(t *testing.T) {
	store := testStore()
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{result: testStore()}
	svc := newTestService(cache, api, &fakeNotifier{}, &fakeLocker{})

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1", UserID: "u1",
	})
	require.NoError(t, err)

	// The speculative snapshot hit the cache before the remote call, and
	// the entry was invalidated once the call settled.
	require.Len(t, cache.sets, 1)
	assert.Equal(t, domain.ItemStatusFulfilled, cache.sets[0].Orders[0].Items[0].Status.Current)
	assert.Equal(t, []string{"store-1"}, cache.invalidated)
}

func TestUpdateOrderItemStatusRollbackOnRemoteFailure(t *testing.T) {
	store := testStore()
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{callErr: errors.New("store api down")}
	notifier := &fakeNotifier{}
	locker := &fakeLocker{}
	svc := newTestService(cache, api, notifier, locker)

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1", UserID: "u1",
	})
	require.Error(t, err)

	// Speculative write, then the exact prior snapshot restored.
	require.Len(t, cache.sets, 2)
	assert.Equal(t, domain.ItemStatusFulfilled, cache.sets[0].Orders[0].Items[0].Status.Current)
	assert.Equal(t, *store, cache.sets[1])
	// Invalidated on failure too, so the next read reconciles.
	assert.Equal(t, []string{"store-1"}, cache.invalidated)
	assert.Empty(t, notifier.events)
	assert.Equal(t, 1, locker.unlocked)
}

func TestGetStoreCacheMissFetchesAndFills(t *testing.T) {
	store := testStore()
	cache := &fakeCache{}
	api := &fakeStoreAPI{fetchResult: store}
	svc := newTestService(cache, api, &fakeNotifier{}, &fakeLocker{})

	got, err := svc.GetStore(context.Background(), "store-1")
	require.NoError(t, err)
	assert.Same(t, store, got)
	assert.Equal(t, []string{"store-1"}, api.fetched)
	require.Len(t, cache.sets, 1)

	// Second read is served from the cache.
	got, err = svc.GetStore(context.Background(), "store-1")
	require.NoError(t, err)
	assert.Same(t, store, got)
	assert.Len(t, api.fetched, 1)
}

func TestGetStoreCacheErrorFallsThrough(t *testing.T) {
	store := testStore()
	cache := &fakeCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	api := &fakeStoreAPI{fetchResult: store}
	svc := newTestService(cache, api, &fakeNotifier{}, &fakeLocker{})

	got, err := svc.GetStore(context.Background(), "store-1")
	require.NoError(t, err)
	assert.Same(t, store, got)
}

func TestGetStoreUnknownStore(t *testing.T) {
	api := &fakeStoreAPI{fetchErr: domain.ErrStoreNotFound}
	svc := newTestService(&fakeCache{}, api, &fakeNotifier{}, &fakeLocker{})

	_, err := svc.GetStore(context.Background(), "store-9")
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestFulfillUnfulfilledOrderItems(t *testing.T) {
	store := testStore()
	store.Orders[0].Items = append(store.Orders[0].Items,
		domain.OrderItem{ID: "item-3", Status: domain.ItemState{Current: domain.ItemStatusShipped}},
		domain.OrderItem{ID: "item-4", Status: domain.ItemState{Current: domain.ItemStatusCanceled}},
	)
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{result: testStore()}
	notifier := &fakeNotifier{}
	svc := newTestService(cache, api, notifier, &fakeLocker{})

	_, err := svc.FulfillUnfulfilledOrderItems(context.Background(), &FulfillOrderItemsRequest{
		StoreID: "store-1", OrderID: "order-1", UserID: "u1",
	})
	require.NoError(t, err)

	require.Len(t, api.bulkCmds, 1)
	items := api.bulkCmds[0].Order.Items
	assert.Equal(t, domain.ItemStatusFulfilled, items[0].Status.Current)
	assert.Equal(t, domain.ItemStatusFulfilled, items[1].Status.Current)
	// Shipped and Canceled items are not eligible and stay put.
	assert.Equal(t, domain.ItemStatusShipped, items[2].Status.Current)
	assert.Equal(t, domain.ItemStatusCanceled, items[3].Status.Current)

	require.Len(t, notifier.events, 2)
	assert.Equal(t, domain.ItemStatusUnfulfilled, notifier.events[0].PreviousStatus)
	assert.Equal(t, domain.ItemStatusBackordered, notifier.events[1].PreviousStatus)
	for _, event := range notifier.events {
		assert.True(t, event.Bulk)
		assert.Equal(t, domain.ItemStatusFulfilled, event.NewStatus)
	}
}

func TestFulfillUnfulfilledOrderItemsNoneEligible(t *testing.T) {
	store := testStore()
	store.Orders[0].Items = []domain.OrderItem{
		{ID: "item-1", Status: domain.ItemState{Current: domain.ItemStatusShipped}},
	}
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{}
	notifier := &fakeNotifier{}
	svc := newTestService(cache, api, notifier, &fakeLocker{})

	result, err := svc.FulfillUnfulfilledOrderItems(context.Background(), &FulfillOrderItemsRequest{
		StoreID: "store-1", OrderID: "order-1", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Same(t, store, result)
	assert.Empty(t, api.bulkCmds)
	assert.Empty(t, cache.sets)
	assert.Empty(t, notifier.events)
}

func TestFulfillUnfulfilledOrderItemsRollback(t *testing.T) {
	store := testStore()
	cache := &fakeCache{store: store}
	api := &fakeStoreAPI{callErr: errors.New("store api down")}
	notifier := &fakeNotifier{}
	svc := newTestService(cache, api, notifier, &fakeLocker{})

	_, err := svc.FulfillUnfulfilledOrderItems(context.Background(), &FulfillOrderItemsRequest{
		StoreID: "store-1", OrderID: "order-1", UserID: "u1",
	})
	require.Error(t, err)
	require.Len(t, cache.sets, 2)
	assert.Equal(t, *store, cache.sets[1])
	assert.Equal(t, []string{"store-1"}, cache.invalidated)
	assert.Empty(t, notifier.events)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	cache := &fakeCache{store: testStore()}
	api := &fakeStoreAPI{result: testStore()}
	notifier := &fakeNotifier{err: errors.New("kafka down")}
	svc := newTestService(cache, api, notifier, &fakeLocker{})

	_, err := svc.UpdateOrderItemStatus(context.Background(), &UpdateItemStatusRequest{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1", UserID: "u1",
	})
	assert.NoError(t, err)
}
