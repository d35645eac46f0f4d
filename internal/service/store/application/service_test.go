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

type fakeStoreRepo struct {
	store   *domain.Store
	findErr error
	saveErr error
	saved   []domain.Store
}

func (r *fakeStoreRepo) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.store, nil
}

func (r *fakeStoreRepo) Save(ctx context.Context, store *domain.Store) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, *store)
	return nil
}

type stockReturn struct {
	productID string
	skuID     string
	quantity  int
}

type fakeInventoryRepo struct {
	returns []stockReturn
	err     error
}

func (r *fakeInventoryRepo) ReturnToStock(ctx context.Context, productID, skuID string, quantity int) error {
	if r.err != nil {
		return r.err
	}
	r.returns = append(r.returns, stockReturn{productID, skuID, quantity})
	return nil
}

func persistedStore() *domain.Store {
	return &domain.Store{
		ID: "store-1",
		Orders: []domain.Order{
			{
				ID:     "order-1",
				Status: domain.OrderStatusUnfulfilled,
				Items: []domain.OrderItem{
					{
						ID:                    "item-1",
						InventoryProductID:    "prod-1",
						InventoryProductSkuID: "sku-1",
						Quantity:              2,
						Status:                domain.ItemState{Current: domain.ItemStatusUnfulfilled},
					},
					{
						ID:                    "item-2",
						InventoryProductID:    "prod-1",
						InventoryProductSkuID: "sku-2",
						Quantity:              5,
						Status:                domain.ItemState{Current: domain.ItemStatusCanceled},
					},
				},
			},
		},
	}
}

func newStoreService(stores *fakeStoreRepo, inventory *fakeInventoryRepo) *Service {
	s := NewService(stores, inventory, noop.NewTracerProvider().Tracer("test"))
	s.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC) }
	return s
}

func TestApplyItemStatusPersistsTransition(t *testing.T) {
	repo := &fakeStoreRepo{store: persistedStore()}
	svc := newStoreService(repo, &fakeInventoryRepo{})

	result, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u1", StatusToSet: domain.ItemStatusFulfilled,
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	item := result.Orders[0].Items[0]
	assert.Equal(t, domain.ItemStatusFulfilled, item.Status.Current)
	assert.Equal(t, "u1", item.Status.Meta[domain.ItemStatusFulfilled].User)
	assert.NotNil(t, result.OrderStatusTotals)
}

func TestApplyItemStatusIdempotentReplay(t *testing.T) {
	store := persistedStore()
	store.Orders[0].Items[0].Status = domain.ItemState{
		Current: domain.ItemStatusFulfilled,
		Meta: domain.StatusMeta{
			domain.ItemStatusFulfilled: {User: "u1", Timestamp: "2026-03-01T00:00:00Z"},
		},
	}
	repo := &fakeStoreRepo{store: store}
	svc := newStoreService(repo, &fakeInventoryRepo{})

	result, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u2", StatusToSet: domain.ItemStatusFulfilled,
	})
	require.NoError(t, err)

	// Nothing persisted, original history untouched.
	assert.Empty(t, repo.saved)
	assert.Equal(t, "u1", result.Orders[0].Items[0].Status.Meta[domain.ItemStatusFulfilled].User)
}

func TestApplyItemStatusInvalidTarget(t *testing.T) {
	svc := newStoreService(&fakeStoreRepo{store: persistedStore()}, &fakeInventoryRepo{})

	_, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u1", StatusToSet: "Archived",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestApplyItemStatusCanceledReturnsStock(t *testing.T) {
	repo := &fakeStoreRepo{store: persistedStore()}
	inventory := &fakeInventoryRepo{}
	svc := newStoreService(repo, inventory)

	_, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u1", StatusToSet: domain.ItemStatusCanceled,
		InventoryProductID: "prod-1", InventoryProductSkuID: "sku-1", OrderItemQuantity: 2,
		ReturnToInventory: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []stockReturn{{"prod-1", "sku-1", 2}}, inventory.returns)
}

func TestApplyItemStatusCanceledWithoutReturnFlag(t *testing.T) {
	repo := &fakeStoreRepo{store: persistedStore()}
	inventory := &fakeInventoryRepo{}
	svc := newStoreService(repo, inventory)

	_, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u1", StatusToSet: domain.ItemStatusCanceled,
	})
	require.NoError(t, err)
	assert.Empty(t, inventory.returns)
}

func TestApplyItemStatusStockFailureDoesNotFailMutation(t *testing.T) {
	repo := &fakeStoreRepo{store: persistedStore()}
	inventory := &fakeInventoryRepo{err: errors.New("sku missing")}
	svc := newStoreService(repo, inventory)

	_, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u1", StatusToSet: domain.ItemStatusCanceled,
		ReturnToInventory: true,
	})
	assert.NoError(t, err)
	assert.Len(t, repo.saved, 1)
}

func TestApplyBulkFulfillment(t *testing.T) {
	store := persistedStore()
	store.Orders[0].Items[1].Status = domain.ItemState{Current: domain.ItemStatusBackordered}
	repo := &fakeStoreRepo{store: store}
	svc := newStoreService(repo, &fakeInventoryRepo{})

	result, err := svc.ApplyBulkFulfillment(context.Background(), &port.FulfillOrderItemsCommand{
		StoreID: "store-1", OrderID: "order-1", UserID: "u1",
	})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	for _, item := range result.Orders[0].Items {
		assert.Equal(t, domain.ItemStatusFulfilled, item.Status.Current)
	}
	assert.Equal(t, domain.OrderStatusFulfilled, result.Orders[0].Status)
}

func TestApplyBulkFulfillmentNoEligibleItems(t *testing.T) {
	store := persistedStore()
	store.Orders[0].Items = []domain.OrderItem{
		{ID: "item-1", Status: domain.ItemState{Current: domain.ItemStatusShipped}},
	}
	repo := &fakeStoreRepo{store: store}
	svc := newStoreService(repo, &fakeInventoryRepo{})

	result, err := svc.ApplyBulkFulfillment(context.Background(), &port.FulfillOrderItemsCommand{
		StoreID: "store-1", OrderID: "order-1", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Same(t, store, result)
	assert.Empty(t, repo.saved)
}

func TestCancelOrder(t *testing.T) {
	store := persistedStore()
	store.Orders[0].Items[0].Status = domain.ItemState{Current: domain.ItemStatusShipped}
	repo := &fakeStoreRepo{store: store}
	inventory := &fakeInventoryRepo{}
	svc := newStoreService(repo, inventory)

	result, err := svc.CancelOrder(context.Background(), "store-1", "order-1", "u1", true)
	require.NoError(t, err)

	order := result.Orders[0]
	assert.True(t, order.Canceled)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	for _, item := range order.Items {
		assert.Equal(t, domain.ItemStatusCanceled, item.Status.Current)
	}
	// Only the item that was not already canceled releases stock.
	assert.Equal(t, []stockReturn{{"prod-1", "sku-1", 2}}, inventory.returns)
}

func TestCancelOrderUnknownOrder(t *testing.T) {
	svc := newStoreService(&fakeStoreRepo{store: persistedStore()}, &fakeInventoryRepo{})
	_, err := svc.CancelOrder(context.Background(), "store-1", "order-9", "u1", false)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestApplyItemStatusSaveFailure(t *testing.T) {
	repo := &fakeStoreRepo{store: persistedStore(), saveErr: errors.New("deadlock")}
	inventory := &fakeInventoryRepo{}
	svc := newStoreService(repo, inventory)

	_, err := svc.ApplyItemStatus(context.Background(), &port.UpdateItemStatusCommand{
		StoreID: "store-1", OrderID: "order-1", OrderItemID: "item-1",
		UserID: "u1", StatusToSet: domain.ItemStatusCanceled, ReturnToInventory: true,
	})
	assert.Error(t, err)
	// Stock is only released after a successful save.
	assert.Empty(t, inventory.returns)
}
