package infrastructure

import (
	"context"
	"fmt"

	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/httpclient"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain/port"
)

// StoreAPIHTTPAdapter implements port.StoreAPI against the store-api
// service. The server re-applies the transition and answers with the
// authoritative store document, orderStatusTotals included.
type StoreAPIHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewStoreAPIHTTPAdapter creates the adapter. baseURL has no trailing slash,
// e.g. "http://store-api:8091".
func NewStoreAPIHTTPAdapter(client *httpclient.Client, baseURL string) *StoreAPIHTTPAdapter {
	return &StoreAPIHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *StoreAPIHTTPAdapter) FetchStore(ctx context.Context, storeID string) (*domain.Store, error) {
	var store domain.Store
	url := fmt.Sprintf("%s/stores/%s", a.baseURL, storeID)
	if err := a.client.GetJSON(ctx, "store-api.FetchStore", url, &store); err != nil {
		if se, ok := err.(*httpclient.StatusError); ok && se.NotFound() {
			return nil, fmt.Errorf("store %s: %w", storeID, domain.ErrStoreNotFound)
		}
		return nil, err
	}
	return &store, nil
}

func (a *StoreAPIHTTPAdapter) UpdateItemStatus(ctx context.Context, cmd port.UpdateItemStatusCommand) (*domain.Store, error) {
	var store domain.Store
	url := a.baseURL + "/orders/update_item_status"
	if err := a.client.PostJSON(ctx, "store-api.UpdateItemStatus", url, cmd, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (a *StoreAPIHTTPAdapter) FulfillOrderItems(ctx context.Context, cmd port.FulfillOrderItemsCommand) (*domain.Store, error) {
	var store domain.Store
	url := a.baseURL + "/orders/fulfill_items"
	if err := a.client.PostJSON(ctx, "store-api.FulfillOrderItems", url, cmd, &store); err != nil {
		return nil, err
	}
	return &store, nil
}
