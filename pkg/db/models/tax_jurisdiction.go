package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
)

// TaxJurisdiction is a tenant-scoped tax authority record. State rows carry
// both state and country codes; country rows act as the fallback.
type TaxJurisdiction struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name          string                 `gorm:"column:name;not null"`
	Type          enums.JurisdictionType `gorm:"column:type;type:text;not null"`
	Rate          decimal.Decimal        `gorm:"column:rate;type:numeric(8,6);not null"`
	CountryCode   string                 `gorm:"column:country_code;not null"`
	StateCode     *string                `gorm:"column:state_code"`
	Active        bool                   `gorm:"column:active;not null;default:true"`
	EffectiveFrom time.Time              `gorm:"column:effective_from;not null"`
	EffectiveTo   *time.Time             `gorm:"column:effective_to"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductTaxSetting marks a product tax-exempt. Absence of a row means the
// product is taxable.
type ProductTaxSetting struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID          uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	Exempt            bool      `gorm:"column:exempt;not null;default:true"`
	ExemptionCategory *string   `gorm:"column:exemption_category"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
