package models

import (
	"time"

	"github.com/google/uuid"
)

// Product groups variants under a tenant catalog entry. Catalog CRUD lives in
// an external collaborator; this model carries only what pricing needs.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name         string           `gorm:"column:name;not null"`
	CollectionID *uuid.UUID       `gorm:"column:collection_id;type:uuid"`
	Active       bool             `gorm:"column:active;not null;default:true"`
	Variants     []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
