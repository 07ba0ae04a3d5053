package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

// ShippingMethod is a tenant-scoped shipping option priced by its calculation
// type. Tier-based methods fall back to BaseRate when no tier brackets the
// input value.
type ShippingMethod struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         uuid.UUID                 `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name             string                    `gorm:"column:name;not null"`
	Carrier          *string                   `gorm:"column:carrier"`
	Calculation      enums.ShippingCalculation `gorm:"column:calculation;type:text;not null"`
	BaseRate         money.Amount              `gorm:"column:base_rate;type:numeric(12,2);not null"`
	FreeThreshold    *money.Amount             `gorm:"column:free_threshold;type:numeric(12,2)"`
	EstDeliveryMin   int                       `gorm:"column:est_delivery_min;not null;default:0"`
	EstDeliveryMax   int                       `gorm:"column:est_delivery_max;not null;default:0"`
	DisplayOrder     int                       `gorm:"column:display_order;not null;default:0"`
	Active           bool                      `gorm:"column:active;not null;default:true"`
	RateTiers        []ShippingRateTier        `gorm:"foreignKey:ShippingMethodID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingRateTier prices the [MinValue, MaxValue) bracket of a tiered method.
// A nil MaxValue means the bracket is unbounded above. The bracketed value is
// order weight for weight_based methods and order subtotal for price_tier.
type ShippingRateTier struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShippingMethodID uuid.UUID        `gorm:"column:shipping_method_id;type:uuid;not null;index"`
	MinValue         decimal.Decimal  `gorm:"column:min_value;type:numeric(12,2);not null"`
	MaxValue         *decimal.Decimal `gorm:"column:max_value;type:numeric(12,2)"`
	Rate             money.Amount     `gorm:"column:rate;type:numeric(12,2);not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}
