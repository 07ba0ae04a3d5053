package tax

import (
	"context"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository loads tax configuration rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a tax repository bound to the provided DB.
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

func (r *Repository) effectiveScope(ctx context.Context, tenantID uuid.UUID, at time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Where("effective_from <= ?", at).
		Where("effective_to IS NULL OR effective_to > ?", at)
}

// FindStateJurisdiction returns the active state-level row matching the
// destination exactly.
func (r *Repository) FindStateJurisdiction(ctx context.Context, tenantID uuid.UUID, stateCode, countryCode string, at time.Time) (*models.TaxJurisdiction, error) {
	var row models.TaxJurisdiction
	err := r.effectiveScope(ctx, tenantID, at).
		Where("state_code = ? AND country_code = ?", stateCode, countryCode).
		Order("effective_from DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindCountryJurisdiction returns the active country-level fallback row.
func (r *Repository) FindCountryJurisdiction(ctx context.Context, tenantID uuid.UUID, countryCode string, at time.Time) (*models.TaxJurisdiction, error) {
	var row models.TaxJurisdiction
	err := r.effectiveScope(ctx, tenantID, at).
		Where("country_code = ? AND type = ?", countryCode, enums.JurisdictionTypeCountry).
		Order("effective_from DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ExemptProductIDs returns the subset of productIDs marked tax-exempt.
func (r *Repository) ExemptProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]struct{}{}, nil
	}
	var rows []models.ProductTaxSetting
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND exempt = ? AND product_id IN ?", tenantID, true, productIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	exempt := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		exempt[row.ProductID] = struct{}{}
	}
	return exempt, nil
}
