package orders

import (
	"context"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns order persistence. Creation writes the order with its item
// and discount snapshots in one gorm create; everything after creation is a
// targeted column update.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an orders repository bound to the provided DB.
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

// Create persists an order together with its associated items and discount
// audit rows.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByIDAndTenant returns a tenant's order with items and discounts
// preloaded.
func (r *Repository) FindByIDAndTenant(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		Preload("Items").
		Preload("Discounts").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByNumber returns a tenant's order by its human-facing number.
func (r *Repository) FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ? AND tenant_id = ?", orderNumber, tenantID).
		Preload("Items").
		Preload("Discounts").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByCustomer returns a customer's orders newest first.
func (r *Repository) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update applies targeted column updates to one order row.
func (r *Repository) Update(ctx context.Context, tenantID, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND tenant_id = ?", orderID, tenantID).
		Updates(updates).Error
}

// UpdateStatusFrom moves an order to a new status only while it still holds
// the expected current status. Zero rows affected means a concurrent
// transition won.
func (r *Repository) UpdateStatusFrom(ctx context.Context, tenantID, orderID uuid.UUID, from, to enums.OrderStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND tenant_id = ? AND status = ?", orderID, tenantID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
