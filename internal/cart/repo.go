package cart

import (
	"context"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository owns cart and cart item persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
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

// FindActiveBySession returns the tenant's active cart for a session, items
// preloaded oldest first.
func (r *Repository) FindActiveBySession(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error) {
	var row models.Cart
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND session_id = ? AND status = ?", tenantID, sessionID, enums.CartStatusActive).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create persists a new cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// FindItem returns one item of a cart.
func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var row models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindItemByVariant returns the cart's line for a variant, if present.
func (r *Repository) FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error) {
	var row models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateItem persists a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItemQuantity sets a line's quantity.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteItem removes one line from a cart.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{}).Error
}

// DeleteItems removes every line from a cart.
func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// SetDiscountCode attaches or detaches (nil) a discount code.
func (r *Repository) SetDiscountCode(ctx context.Context, cartID uuid.UUID, codeID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("discount_code_id", codeID).Error
}

// UpdateTotals refreshes the cart's cached totals.
func (r *Repository) UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotal, discount, tax, shipping, total money.Amount) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"subtotal":       subtotal,
			"discount_total": discount,
			"tax_total":      tax,
			"shipping_total": shipping,
			"total":          total,
		}).Error
}

// Touch refreshes the activity timestamp and pushes out expiry.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID, lastActivity, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"last_activity_at": lastActivity,
			"expires_at":       expiresAt,
		}).Error
}

// UpdateStatus moves a cart to a new lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status).Error
}
