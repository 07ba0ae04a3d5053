package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

// Cart is the session-scoped staging area for a checkout. Totals are a cache
// refreshed by the totals calculator; the invariant total = subtotal -
// discount + tax + shipping holds after every refresh.
type Cart struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index:idx_carts_tenant_session"`
	SessionID      string           `gorm:"column:session_id;not null;index:idx_carts_tenant_session"`
	CustomerID     *uuid.UUID       `gorm:"column:customer_id;type:uuid"`
	Status         enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	DiscountCodeID *uuid.UUID       `gorm:"column:discount_code_id;type:uuid"`
	Subtotal       money.Amount     `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountTotal  money.Amount     `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	TaxTotal       money.Amount     `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	ShippingTotal  money.Amount     `gorm:"column:shipping_total;type:numeric(12,2);not null;default:0"`
	Total          money.Amount     `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	ExpiresAt      time.Time        `gorm:"column:expires_at;not null"`
	LastActivityAt time.Time        `gorm:"column:last_activity_at;not null"`
	Items          []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
