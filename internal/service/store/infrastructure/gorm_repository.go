package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

// GormStoreRepository implements domain.StoreRepository on MySQL via GORM.
type GormStoreRepository struct {
	db *gorm.DB
}

func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

func (r *GormStoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	var model StoreModel
	err := r.db.WithContext(ctx).
		Preload("Orders.Items").
		Preload("Orders").
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStoreNotFound
		}
		return nil, errors.Wrap(err, "load store")
	}
	return ToDomainStore(&model)
}

// Save persists the order and item state of the snapshot. Store identity
// fields are written by the store-creation flow, not here; a fulfillment
// save only touches what a status mutation can change.
func (r *GormStoreRepository) Save(ctx context.Context, store *domain.Store) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, order := range store.Orders {
			update := map[string]interface{}{
				"status":     string(order.Status),
				"printed":    order.Printed,
				"canceled":   order.Canceled,
				"updated_at": time.Now().UTC(),
			}
			if err := tx.Model(&OrderModel{}).Where("id = ? AND store_id = ?", order.ID, store.ID).Updates(update).Error; err != nil {
				return errors.Wrapf(err, "save order %s", order.ID)
			}
			for _, item := range order.Items {
				meta, err := encodeStatusMeta(item.Status.Meta)
				if err != nil {
					return err
				}
				itemUpdate := map[string]interface{}{
					"status":      string(item.Status.Current),
					"status_meta": meta,
				}
				if err := tx.Model(&OrderItemModel{}).Where("id = ? AND order_id = ?", item.ID, order.ID).Updates(itemUpdate).Error; err != nil {
					return errors.Wrapf(err, "save item %s", item.ID)
				}
			}
		}
		return nil
	})
}

// GormInventoryRepository implements domain.InventoryRepository.
type GormInventoryRepository struct {
	db *gorm.DB
}

func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// ReturnToStock atomically adds quantity back to the SKU's stock count.
func (r *GormInventoryRepository) ReturnToStock(ctx context.Context, inventoryProductID, skuID string, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&InventorySkuModel{}).
		Where("id = ? AND inventory_product_id = ?", skuID, inventoryProductID).
		UpdateColumn("in_stock", gorm.Expr("in_stock + ?", quantity))
	if result.Error != nil {
		return errors.Wrapf(result.Error, "return %d units to sku %s", quantity, skuID)
	}
	if result.RowsAffected == 0 {
		return errors.Errorf("inventory sku %s not found for product %s", skuID, inventoryProductID)
	}
	return nil
}
