package catalog

import (
	"context"
	"errors"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads variants and owns the conditional stock mutations. Stock
// never changes through a plain write: the deduct guard closes the
// check-then-deduct race between concurrent checkouts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
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

// FindVariant returns a tenant's variant.
func (r *Repository) FindVariant(ctx context.Context, tenantID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var row models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", variantID, tenantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
	}
	return &row, nil
}

// FindProduct returns a tenant's product.
func (r *Repository) FindProduct(ctx context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &row, nil
}

// DeductStock decrements a variant's stock only while enough remains. Zero
// rows affected means another transaction took the units first; callers must
// treat false as insufficient stock and abort.
func (r *Repository) DeductStock(ctx context.Context, tenantID, variantID uuid.UUID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND tenant_id = ? AND stock >= ?", variantID, tenantID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RestoreStock adds units back after a cancellation or refund.
func (r *Repository) RestoreStock(ctx context.Context, tenantID, variantID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND tenant_id = ?", variantID, tenantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
