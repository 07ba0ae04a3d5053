package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

// DiscountCode belongs to exactly one code-scoped discount. UsageCount never
// exceeds UsageLimit; the increment is a conditional update guarded by the
// limit inside the order transaction.
type DiscountCode struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountID    uuid.UUID     `gorm:"column:discount_id;type:uuid;not null;index"`
	TenantID      uuid.UUID     `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:uq_discount_codes_tenant_code"`
	Code          string        `gorm:"column:code;not null;uniqueIndex:uq_discount_codes_tenant_code"`
	UsageLimit    *int          `gorm:"column:usage_limit"`
	UsageCount    int           `gorm:"column:usage_count;not null;default:0"`
	MinOrderValue *money.Amount `gorm:"column:min_order_value;type:numeric(12,2)"`
	Active        bool          `gorm:"column:active;not null;default:true"`
	Discount      *Discount     `gorm:"foreignKey:DiscountID"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
