package infrastructure

import "time"

// GORM models for the store aggregate. Domain types never leak into the
// schema; the mapper converts both ways.

type StoreModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:255;uniqueIndex"`
	Orders    []OrderModel `gorm:"foreignKey:StoreID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (StoreModel) TableName() string { return "stores" }

type OrderModel struct {
	ID         string `gorm:"primaryKey;size:36"`
	StoreID    string `gorm:"index;size:36;not null"`
	CustomerID string `gorm:"size:36"`
	Status     string `gorm:"size:32;index;not null"`
	Printed    bool
	Canceled   bool
	// Position preserves the display order of orders within a store.
	Position  int `gorm:"index"`
	Items     []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderModel) TableName() string { return "orders" }

type OrderItemModel struct {
	ID                    string `gorm:"primaryKey;size:36"`
	OrderID               string `gorm:"index;size:36;not null"`
	SKU                   string `gorm:"size:64"`
	Name                  string `gorm:"size:255"`
	InventoryProductID    string `gorm:"size:36;index"`
	InventoryProductSkuID string `gorm:"size:36;index"`
	Quantity              int
	Price                 int
	Status                string `gorm:"size:32;not null"`
	// StatusMeta holds the append-only transition history as JSON.
	StatusMeta string `gorm:"type:json"`
	Position   int
}

func (OrderItemModel) TableName() string { return "order_items" }

type InventorySkuModel struct {
	ID                 string `gorm:"primaryKey;size:36"`
	InventoryProductID string `gorm:"index;size:36;not null"`
	Size               string `gorm:"size:32"`
	Color              string `gorm:"size:64"`
	InStock            int
	UpdatedAt          time.Time
}

func (InventorySkuModel) TableName() string { return "inventory_skus" }
