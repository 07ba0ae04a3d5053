package customers

import (
	"context"
	"errors"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads customer and address rows. Checkout only ever reads this
// data; writes belong to the customer management surface.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customers repository bound to the provided DB.
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

// FindCustomer returns a tenant's customer. A row owned by another tenant is
// indistinguishable from a missing one.
func (r *Repository) FindCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*models.Customer, error) {
	var row models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return &row, nil
}

// FindAddress returns a tenant's address row.
func (r *Repository) FindAddress(ctx context.Context, tenantID, addressID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", addressID, tenantID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return &row, nil
}

// FindCustomerAddress returns an address only when it belongs to both the
// tenant and the customer.
func (r *Repository) FindCustomerAddress(ctx context.Context, tenantID, customerID, addressID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND customer_id = ?", addressID, tenantID, customerID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	return &row, nil
}
