package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
)

// Discount is a tenant-scoped promotion. Value is a percentage (0-100) for
// percentage type or a monetary amount for fixed_amount type. Scope selects
// which association rows (products/collections/variants) or codes govern
// applicability.
type Discount struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name        string              `gorm:"column:name;not null"`
	Type        enums.DiscountType  `gorm:"column:type;type:text;not null"`
	Scope       enums.DiscountScope `gorm:"column:scope;type:text;not null"`
	Value       decimal.Decimal     `gorm:"column:value;type:numeric(12,2);not null"`
	Active      bool                `gorm:"column:active;not null;default:true"`
	Priority    int                 `gorm:"column:priority;not null;default:0"`
	StartsAt    time.Time           `gorm:"column:starts_at;not null"`
	EndsAt      *time.Time          `gorm:"column:ends_at"`
	Products    []DiscountProduct   `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	Collections []DiscountCollection `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	Variants    []DiscountVariant   `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	Codes       []DiscountCode      `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// DiscountProduct scopes a discount to a single product.
type DiscountProduct struct {
	DiscountID uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
}

// DiscountCollection scopes a discount to a collection.
type DiscountCollection struct {
	DiscountID   uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	CollectionID uuid.UUID `gorm:"column:collection_id;type:uuid;primaryKey"`
}

// DiscountVariant scopes a discount to a single variant.
type DiscountVariant struct {
	DiscountID uuid.UUID `gorm:"column:discount_id;type:uuid;primaryKey"`
	VariantID  uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
}
