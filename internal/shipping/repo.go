package shipping

import (
	"context"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository loads shipping method configuration.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListActive returns the tenant's active methods in display order, tiers
// preloaded ascending by bracket floor.
func (r *Repository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Preload("RateTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_value ASC")
		}).
		Order("display_order ASC, name ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// FindActive returns one active method by id, tiers preloaded.
func (r *Repository) FindActive(ctx context.Context, tenantID, methodID uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND active = ?", methodID, tenantID, true).
		Preload("RateTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_value ASC")
		}).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}
