package discount

import (
	"context"
	"sort"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository loads discounts and codes and owns the guarded usage increment.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a discount repository bound to the provided DB.
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

// FindCodeWithDiscount looks up a code by its string within the tenant, parent
// discount preloaded. Codes are stored uppercase.
func (r *Repository) FindCodeWithDiscount(ctx context.Context, tenantID uuid.UUID, code string) (*models.DiscountCode, error) {
	var row models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Preload("Discount").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindCodeByID looks up a code by primary key within the tenant, parent
// discount preloaded.
func (r *Repository) FindCodeByID(ctx context.Context, tenantID, codeID uuid.UUID) (*models.DiscountCode, error) {
	var row models.DiscountCode
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", codeID, tenantID).
		Preload("Discount").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListApplicable returns active, in-window, non-code discounts whose scope
// covers the given product/collection/variant, highest priority first.
func (r *Repository) ListApplicable(ctx context.Context, tenantID, productID uuid.UUID, collectionID, variantID *uuid.UUID, at time.Time) ([]models.Discount, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Where("discounts.tenant_id = ? AND discounts.active = ?", tenantID, true).
			Where("discounts.starts_at <= ?", at).
			Where("discounts.ends_at IS NULL OR discounts.ends_at > ?", at)
	}

	var rows []models.Discount
	if err := base().
		Where("discounts.scope = ?", enums.DiscountScopeStoreWide).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var productScoped []models.Discount
	if err := base().
		Joins("JOIN discount_products dp ON dp.discount_id = discounts.id").
		Where("discounts.scope = ? AND dp.product_id = ?", enums.DiscountScopeProduct, productID).
		Find(&productScoped).Error; err != nil {
		return nil, err
	}
	rows = append(rows, productScoped...)

	if collectionID != nil {
		var collectionScoped []models.Discount
		if err := base().
			Joins("JOIN discount_collections dc ON dc.discount_id = discounts.id").
			Where("discounts.scope = ? AND dc.collection_id = ?", enums.DiscountScopeCollection, *collectionID).
			Find(&collectionScoped).Error; err != nil {
			return nil, err
		}
		rows = append(rows, collectionScoped...)
	}

	if variantID != nil {
		var variantScoped []models.Discount
		if err := base().
			Joins("JOIN discount_variants dv ON dv.discount_id = discounts.id").
			Where("discounts.scope = ? AND dv.variant_id = ?", enums.DiscountScopeVariant, *variantID).
			Find(&variantScoped).Error; err != nil {
			return nil, err
		}
		rows = append(rows, variantScoped...)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Priority > rows[j].Priority
	})
	return rows, nil
}

// IncrementUsage bumps a code's usage count only while it is still under its
// limit. Zero rows affected means another transaction consumed the last use.
func (r *Repository) IncrementUsage(ctx context.Context, codeID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", codeID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
