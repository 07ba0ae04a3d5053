package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

// CartItem references a product variant with the unit price snapshotted at the
// time the item was added; it is not live-repriced on reads.
type CartItem struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID    `gorm:"column:cart_id;type:uuid;not null;index"`
	VariantID uuid.UUID    `gorm:"column:variant_id;type:uuid;not null"`
	ProductID uuid.UUID    `gorm:"column:product_id;type:uuid;not null"`
	SKU       string       `gorm:"column:sku;not null"`
	Quantity  int          `gorm:"column:quantity;not null"`
	UnitPrice money.Amount `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
