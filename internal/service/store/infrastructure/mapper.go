package infrastructure

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// ToDomainStore converts a loaded StoreModel graph into the domain
// aggregate. Orders and items come back in their persisted display order and
// the status totals are recomputed fresh; they are derived data and never
// read from storage.
func ToDomainStore(m *StoreModel) (*domain.Store, error) {
	orders := make([]domain.Order, 0, len(m.Orders))
	sort.SliceStable(m.Orders, func(i, j int) bool { return m.Orders[i].Position < m.Orders[j].Position })
	for i := range m.Orders {
		order, err := toDomainOrder(&m.Orders[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return &domain.Store{
		ID:                m.ID,
		Name:              m.Name,
		Slug:              m.Slug,
		Orders:            orders,
		OrderStatusTotals: domain.RecomputeOrderStatusTotals(orders),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func toDomainOrder(m *OrderModel) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(m.Items))
	sort.SliceStable(m.Items, func(i, j int) bool { return m.Items[i].Position < m.Items[j].Position })
	for i := range m.Items {
		item, err := toDomainItem(&m.Items[i])
		if err != nil {
			return nil, errors.Wrapf(err, "order %s", m.ID)
		}
		items = append(items, *item)
	}
	return &domain.Order{
		ID:         m.ID,
		StoreID:    m.StoreID,
		CustomerID: m.CustomerID,
		Status:     domain.OrderStatus(m.Status),
		Printed:    m.Printed,
		Canceled:   m.Canceled,
		Items:      items,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

func toDomainItem(m *OrderItemModel) (*domain.OrderItem, error) {
	meta := domain.StatusMeta{}
	if m.StatusMeta != "" {
		if err := json.Unmarshal([]byte(m.StatusMeta), &meta); err != nil {
			return nil, errors.Wrapf(err, "decode status meta of item %s", m.ID)
		}
	}
	return &domain.OrderItem{
		ID:                    m.ID,
		SKU:                   m.SKU,
		Name:                  m.Name,
		InventoryProductID:    m.InventoryProductID,
		InventoryProductSkuID: m.InventoryProductSkuID,
		Quantity:              m.Quantity,
		Price:                 m.Price,
		Status: domain.ItemState{
			Current: domain.ItemStatus(m.Status),
			Meta:    meta,
		},
	}, nil
}

func encodeStatusMeta(meta domain.StatusMeta) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", errors.Wrap(err, "encode status meta")
	}
	return string(raw), nil
}
