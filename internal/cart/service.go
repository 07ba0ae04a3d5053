package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmercado-dev/shopforge-backend/internal/discount"
	"github.com/dmercado-dev/shopforge-backend/internal/shipping"
	"github.com/dmercado-dev/shopforge-backend/internal/tax"
	"github.com/dmercado-dev/shopforge-backend/pkg/config"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type cartStore interface {
	FindActiveBySession(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	SetDiscountCode(ctx context.Context, cartID uuid.UUID, codeID *uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, subtotal, discount, tax, shipping, total money.Amount) error
	Touch(ctx context.Context, cartID uuid.UUID, lastActivity, expiresAt time.Time) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
}

type variantReader interface {
	FindVariant(ctx context.Context, tenantID, variantID uuid.UUID) (*models.ProductVariant, error)
}

type addressReader interface {
	FindAddress(ctx context.Context, tenantID, addressID uuid.UUID) (*models.Address, error)
}

type codeValidator interface {
	ValidateCode(ctx context.Context, tenantID uuid.UUID, code string, orderTotal money.Amount) (*discount.CodeResult, error)
	ValidateCodeID(ctx context.Context, tenantID, codeID uuid.UUID, orderTotal money.Amount) (*discount.CodeResult, error)
}

type taxResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, stateCode, countryCode string, lines []tax.Line) (*tax.Result, error)
}

type shippingPricer interface {
	PriceMethod(ctx context.Context, tenantID, methodID uuid.UUID, subtotal money.Amount, weight *decimal.Decimal) (*shipping.Option, error)
}

// TotalsInput selects the optional tax/shipping dimensions of a totals
// preview. Both absent yields the short response shape.
type TotalsInput struct {
	ShippingAddressID *uuid.UUID
	ShippingMethodID  *uuid.UUID
}

// Totals is the cached pricing summary; Total always equals
// Subtotal - Discount + Tax + Shipping.
type Totals struct {
	Subtotal money.Amount `json:"subtotal"`
	Discount money.Amount `json:"discount_total"`
	Tax      money.Amount `json:"tax_total"`
	Shipping money.Amount `json:"shipping_total"`
	Total    money.Amount `json:"total"`
}

// TaxBreakdown reports the resolved jurisdiction and partitioned bases.
type TaxBreakdown struct {
	Jurisdiction    string          `json:"jurisdiction"`
	Rate            decimal.Decimal `json:"rate"`
	TaxableSubtotal money.Amount    `json:"taxable_subtotal"`
	ExemptSubtotal  money.Amount    `json:"exempt_subtotal"`
	Amount          money.Amount    `json:"amount"`
}

// DiscountBreakdown reports the applied code and its amount.
type DiscountBreakdown struct {
	Code   string       `json:"code"`
	Amount money.Amount `json:"amount"`
}

// Breakdown is the long response shape, returned only when a shipping address
// or method was supplied.
type Breakdown struct {
	Discount *DiscountBreakdown `json:"discount,omitempty"`
	Tax      *TaxBreakdown      `json:"tax,omitempty"`
	Shipping *shipping.Option   `json:"shipping,omitempty"`
}

// TotalsResult pairs the refreshed cart with its totals and optional
// breakdown.
type TotalsResult struct {
	Cart      *models.Cart `json:"cart"`
	Totals    Totals       `json:"totals"`
	Breakdown *Breakdown   `json:"breakdown,omitempty"`
}

// Service is the session cart surface: item staging, discount code
// attachment, and the totals calculation checkout later re-derives.
type Service interface {
	GetOrCreate(ctx context.Context, tenantID uuid.UUID, sessionID string, customerID *uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, tenantID uuid.UUID, sessionID string, variantID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, tenantID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, tenantID uuid.UUID, sessionID string, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error)
	ApplyDiscountCode(ctx context.Context, tenantID uuid.UUID, sessionID, code string) (*models.Cart, error)
	RemoveDiscountCode(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error)
	CalculateTotals(ctx context.Context, tenantID uuid.UUID, sessionID string, input TotalsInput) (*TotalsResult, error)
}

type service struct {
	repo      cartStore
	variants  variantReader
	addresses addressReader
	discounts codeValidator
	taxes     taxResolver
	shipping  shippingPricer
	logg      *logger.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewService wires the cart service.
func NewService(
	repo cartStore,
	variants variantReader,
	addresses addressReader,
	discounts codeValidator,
	taxes taxResolver,
	shippingPricer shippingPricer,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant reader required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address reader required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if taxes == nil {
		return nil, fmt.Errorf("tax resolver required")
	}
	if shippingPricer == nil {
		return nil, fmt.Errorf("shipping pricer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := cfg.CartTTL
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &service{
		repo:      repo,
		variants:  variants,
		addresses: addresses,
		discounts: discounts,
		taxes:     taxes,
		shipping:  shippingPricer,
		logg:      logg,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

func (s *service) GetOrCreate(ctx context.Context, tenantID uuid.UUID, sessionID string, customerID *uuid.UUID) (*models.Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	now := s.now()
	existing, err := s.repo.FindActiveBySession(ctx, tenantID, sessionID)
	switch {
	case err == nil:
		if existing.ExpiresAt.After(now) {
			return existing, nil
		}
		// expired carts are abandoned in place, a fresh one takes over
		if err := s.repo.UpdateStatus(ctx, existing.ID, enums.CartStatusAbandoned); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon expired cart")
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart := &models.Cart{
		ID:             uuid.New(),
		TenantID:       tenantID,
		SessionID:      sessionID,
		CustomerID:     customerID,
		Status:         enums.CartStatusActive,
		ExpiresAt:      now.Add(s.ttl),
		LastActivityAt: now,
	}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, tenantID uuid.UUID, sessionID string, variantID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	variant, err := s.variants.FindVariant(ctx, tenantID, variantID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItemByVariant(ctx, cart.ID, variantID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	requested := quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if requested > variant.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("insufficient stock for %s", variant.SKU))
	}

	if existing != nil {
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, requested); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
	} else {
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			SKU:       variant.SKU,
			Quantity:  quantity,
			UnitPrice: variant.Price,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
	}

	return s.refresh(ctx, tenantID, sessionID, cart.ID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, tenantID uuid.UUID, sessionID string, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	variant, err := s.variants.FindVariant(ctx, tenantID, item.VariantID)
	if err != nil {
		return nil, err
	}
	if quantity > variant.Stock {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("insufficient stock for %s", variant.SKU))
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.refresh(ctx, tenantID, sessionID, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, tenantID uuid.UUID, sessionID string, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.refresh(ctx, tenantID, sessionID, cart.ID)
}

func (s *service) Clear(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error) {
	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if err := s.repo.SetDiscountCode(ctx, cart.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach discount code")
	}
	zero := money.Zero()
	if err := s.repo.UpdateTotals(ctx, cart.ID, zero, zero, zero, zero, zero); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset cart totals")
	}
	return s.refresh(ctx, tenantID, sessionID, cart.ID)
}

func (s *service) ApplyDiscountCode(ctx context.Context, tenantID uuid.UUID, sessionID, code string) (*models.Cart, error) {
	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	subtotal := itemsSubtotal(cart.Items)
	result, err := s.discounts.ValidateCode(ctx, tenantID, code, subtotal)
	if err != nil {
		return nil, err
	}

	codeID := result.Code.ID
	if err := s.repo.SetDiscountCode(ctx, cart.ID, &codeID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach discount code")
	}
	return s.refresh(ctx, tenantID, sessionID, cart.ID)
}

func (s *service) RemoveDiscountCode(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error) {
	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDiscountCode(ctx, cart.ID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach discount code")
	}
	return s.refresh(ctx, tenantID, sessionID, cart.ID)
}

// CalculateTotals prices the cart stage by stage: subtotal from snapshot unit
// prices, discount from the attached code revalidated against that subtotal,
// tax on the discounted base apportioned per line, shipping from the chosen
// method. The result is persisted to the cart's cached columns.
func (s *service) CalculateTotals(ctx context.Context, tenantID uuid.UUID, sessionID string, input TotalsInput) (*TotalsResult, error) {
	cart, err := s.activeCart(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	subtotal := itemsSubtotal(cart.Items)

	discountTotal := money.Zero()
	var discountInfo *DiscountBreakdown
	if cart.DiscountCodeID != nil {
		result, err := s.discounts.ValidateCodeID(ctx, tenantID, *cart.DiscountCodeID, subtotal)
		if err != nil {
			return nil, err
		}
		discountTotal = result.Amount
		discountInfo = &DiscountBreakdown{Code: result.Code.Code, Amount: result.Amount}
	}

	taxTotal := money.Zero()
	var taxInfo *TaxBreakdown
	if input.ShippingAddressID != nil {
		address, err := s.addresses.FindAddress(ctx, tenantID, *input.ShippingAddressID)
		if err != nil {
			return nil, err
		}
		lines := apportionLines(cart.Items, subtotal, discountTotal)
		resolved, err := s.taxes.Resolve(ctx, tenantID, address.State, address.Country, lines)
		if err != nil {
			return nil, err
		}
		taxTotal = resolved.TaxAmount
		taxInfo = &TaxBreakdown{
			Jurisdiction:    resolved.Name,
			Rate:            resolved.Rate,
			TaxableSubtotal: resolved.TaxableSubtotal,
			ExemptSubtotal:  resolved.ExemptSubtotal,
			Amount:          resolved.TaxAmount,
		}
	}

	shippingTotal := money.Zero()
	var shippingInfo *shipping.Option
	if input.ShippingMethodID != nil {
		weight, err := s.cartWeight(ctx, tenantID, cart.Items)
		if err != nil {
			return nil, err
		}
		option, err := s.shipping.PriceMethod(ctx, tenantID, *input.ShippingMethodID, subtotal.Sub(discountTotal), weight)
		if err != nil {
			// previews degrade to no shipping line; checkout treats this
			// as terminal instead
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				s.logg.Warn(ctx, "shipping method missing during totals preview")
			} else {
				return nil, err
			}
		} else {
			shippingTotal = option.Cost
			shippingInfo = option
		}
	}

	total := subtotal.Sub(discountTotal).Add(taxTotal).Add(shippingTotal)
	if err := s.repo.UpdateTotals(ctx, cart.ID, subtotal, discountTotal, taxTotal, shippingTotal, total); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart totals")
	}

	refreshed, err := s.refresh(ctx, tenantID, sessionID, cart.ID)
	if err != nil {
		return nil, err
	}

	result := &TotalsResult{
		Cart: refreshed,
		Totals: Totals{
			Subtotal: subtotal,
			Discount: discountTotal,
			Tax:      taxTotal,
			Shipping: shippingTotal,
			Total:    total,
		},
	}
	if input.ShippingAddressID != nil || input.ShippingMethodID != nil {
		result.Breakdown = &Breakdown{
			Discount: discountInfo,
			Tax:      taxInfo,
			Shipping: shippingInfo,
		}
	}
	return result, nil
}

func (s *service) activeCart(ctx context.Context, tenantID uuid.UUID, sessionID string) (*models.Cart, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	cart, err := s.repo.FindActiveBySession(ctx, tenantID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) refresh(ctx context.Context, tenantID uuid.UUID, sessionID string, cartID uuid.UUID) (*models.Cart, error) {
	now := s.now()
	if err := s.repo.Touch(ctx, cartID, now, now.Add(s.ttl)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
	}
	cart, err := s.repo.FindActiveBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

func (s *service) cartWeight(ctx context.Context, tenantID uuid.UUID, items []models.CartItem) (*decimal.Decimal, error) {
	total := decimal.Zero
	found := false
	for _, item := range items {
		variant, err := s.variants.FindVariant(ctx, tenantID, item.VariantID)
		if err != nil {
			return nil, err
		}
		if variant.Weight == nil {
			continue
		}
		found = true
		total = total.Add(variant.Weight.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !found {
		return nil, nil
	}
	return &total, nil
}

func itemsSubtotal(items []models.CartItem) money.Amount {
	subtotal := money.Zero()
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.MulInt(item.Quantity))
	}
	return subtotal
}

// apportionLines scales each line by (subtotal - discount) / subtotal so
// exemption partitioning sees post-discount bases.
func apportionLines(items []models.CartItem, subtotal, discountTotal money.Amount) []tax.Line {
	discounted := subtotal.Sub(discountTotal)
	lines := make([]tax.Line, 0, len(items))
	for _, item := range items {
		lineSubtotal := item.UnitPrice.MulInt(item.Quantity)
		lines = append(lines, tax.Line{
			ProductID: item.ProductID,
			Subtotal:  lineSubtotal.ScaleBy(discounted, subtotal),
		})
	}
	return lines
}
