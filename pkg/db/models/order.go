package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

// Order is the durable record of a checkout. Pricing fields and the resolved
// tax/shipping decisions are snapshots; configuration changes after creation
// never alter them. Only status transitions and note appends mutate the row.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID          uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderNumber       string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID        uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	ShippingAddressID uuid.UUID         `gorm:"column:shipping_address_id;type:uuid;not null"`
	BillingAddressID  uuid.UUID         `gorm:"column:billing_address_id;type:uuid;not null"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal          money.Amount      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountTotal     money.Amount      `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	TaxTotal          money.Amount      `gorm:"column:tax_total;type:numeric(12,2);not null;default:0"`
	ShippingTotal     money.Amount      `gorm:"column:shipping_total;type:numeric(12,2);not null;default:0"`
	Total             money.Amount      `gorm:"column:total;type:numeric(12,2);not null"`
	TaxJurisdictionID *uuid.UUID        `gorm:"column:tax_jurisdiction_id;type:uuid"`
	TaxJurisdiction   string            `gorm:"column:tax_jurisdiction;not null;default:''"`
	TaxRate           decimal.Decimal   `gorm:"column:tax_rate;type:numeric(8,6);not null;default:0"`
	ShippingMethodID  *uuid.UUID        `gorm:"column:shipping_method_id;type:uuid"`
	ShippingMethod    string            `gorm:"column:shipping_method;not null;default:''"`
	ShippingCarrier   *string           `gorm:"column:shipping_carrier"`
	Notes             *string           `gorm:"column:notes"`
	SessionID         *string           `gorm:"column:session_id"`
	CancelledAt       *time.Time        `gorm:"column:cancelled_at"`
	RefundedAt        *time.Time        `gorm:"column:refunded_at"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Discounts         []OrderDiscount   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is an immutable line snapshot taken at order creation.
type OrderItem struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID    `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID uuid.UUID    `gorm:"column:variant_id;type:uuid;not null"`
	ProductID uuid.UUID    `gorm:"column:product_id;type:uuid;not null"`
	SKU       string       `gorm:"column:sku;not null"`
	Quantity  int          `gorm:"column:quantity;not null"`
	UnitPrice money.Amount `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal money.Amount `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
}

// OrderDiscount is the audit row recording which discount/code was applied to
// an order and the exact amount; written in the same transaction as the order.
type OrderDiscount struct {
	ID             uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID    `gorm:"column:order_id;type:uuid;not null;index"`
	DiscountID     uuid.UUID    `gorm:"column:discount_id;type:uuid;not null"`
	DiscountCodeID *uuid.UUID   `gorm:"column:discount_code_id;type:uuid"`
	Code           string       `gorm:"column:code;not null;default:''"`
	Amount         money.Amount `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt      time.Time    `gorm:"column:created_at;autoCreateTime"`
}
