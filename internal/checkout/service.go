package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/dmercado-dev/shopforge-backend/internal/attribution"
	"github.com/dmercado-dev/shopforge-backend/internal/cart"
	"github.com/dmercado-dev/shopforge-backend/internal/catalog"
	"github.com/dmercado-dev/shopforge-backend/internal/customers"
	"github.com/dmercado-dev/shopforge-backend/internal/discount"
	"github.com/dmercado-dev/shopforge-backend/internal/orders"
	"github.com/dmercado-dev/shopforge-backend/internal/shipping"
	"github.com/dmercado-dev/shopforge-backend/internal/tax"
	"github.com/dmercado-dev/shopforge-backend/pkg/config"
	"github.com/dmercado-dev/shopforge-backend/pkg/db"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/metrics"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input carries everything a checkout needs beyond the cart itself.
type Input struct {
	TenantID          uuid.UUID
	SessionID         string
	CustomerID        uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	ShippingMethodID  uuid.UUID
	DiscountCode      *string
	Notes             *string
}

// Service turns an active cart into an order inside a single transaction.
// Stock deduction and discount usage accounting are guarded updates, so two
// simultaneous checkouts cannot both take the last unit or the last code use.
type Service interface {
	Execute(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	tx        txRunner
	carts     *cart.Repository
	orders    *orders.Repository
	customers *customers.Repository
	catalog   *catalog.Repository
	discounts *discount.Repository
	taxes     *tax.Repository
	shipping  *shipping.Repository
	notifier  attribution.Notifier
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	cfg       config.CheckoutConfig
	now       func() time.Time
}

// NewService wires the checkout service.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	orderRepo *orders.Repository,
	customerRepo *customers.Repository,
	catalogRepo *catalog.Repository,
	discountRepo *discount.Repository,
	taxRepo *tax.Repository,
	shippingRepo *shipping.Repository,
	notifier attribution.Notifier,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cartRepo == nil || orderRepo == nil || customerRepo == nil || catalogRepo == nil ||
		discountRepo == nil || taxRepo == nil || shippingRepo == nil {
		return nil, fmt.Errorf("all repositories required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("attribution notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		carts:     cartRepo,
		orders:    orderRepo,
		customers: customerRepo,
		catalog:   catalogRepo,
		discounts: discountRepo,
		taxes:     taxRepo,
		shipping:  shippingRepo,
		notifier:  notifier,
		metrics:   checkoutMetrics,
		logg:      logg,
		cfg:       cfg,
		now:       time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, input Input) (*models.Order, error) {
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.createOrder(ctx, tx, input)
		if err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncCheckoutFailure(string(typed.Code()))
		} else {
			s.metrics.IncCheckoutFailure(string(pkgerrors.CodeInternal))
		}
		return nil, err
	}

	s.metrics.IncOrderCreated()
	s.attribute(ctx, input, created)
	return created, nil
}

func (s *service) createOrder(ctx context.Context, tx *gorm.DB, input Input) (*models.Order, error) {
	cartRepo := s.carts.WithTx(tx)
	activeCart, err := cartRepo.FindActiveBySession(ctx, input.TenantID, input.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart for session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(activeCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	customerRepo := s.customers.WithTx(tx)
	customer, err := customerRepo.FindCustomer(ctx, input.TenantID, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if _, err := customerRepo.FindCustomerAddress(ctx, input.TenantID, customer.ID, input.BillingAddressID); err != nil {
		return nil, err
	}
	shipTo, err := customerRepo.FindCustomerAddress(ctx, input.TenantID, customer.ID, input.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	// live prices, not cart snapshots: a price change between add and
	// checkout reaches the order
	catalogRepo := s.catalog.WithTx(tx)
	subtotal := money.Zero()
	var weightTotal decimal.Decimal
	hasWeight := false
	items := make([]models.OrderItem, 0, len(activeCart.Items))
	variants := make([]*models.ProductVariant, 0, len(activeCart.Items))
	for _, line := range activeCart.Items {
		variant, err := catalogRepo.FindVariant(ctx, input.TenantID, line.VariantID)
		if err != nil {
			return nil, err
		}
		lineTotal := variant.Price.MulInt(line.Quantity)
		subtotal = subtotal.Add(lineTotal)
		if variant.Weight != nil {
			hasWeight = true
			weightTotal = weightTotal.Add(variant.Weight.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			VariantID: variant.ID,
			ProductID: variant.ProductID,
			SKU:       variant.SKU,
			Quantity:  line.Quantity,
			UnitPrice: variant.Price,
			LineTotal: lineTotal,
		})
		variants = append(variants, variant)
	}

	discountTotal := money.Zero()
	var codeResult *discount.CodeResult
	engine, err := discount.NewEngine(s.discounts.WithTx(tx))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build discount engine")
	}
	switch {
	case input.DiscountCode != nil && *input.DiscountCode != "":
		codeResult, err = engine.ValidateCode(ctx, input.TenantID, *input.DiscountCode, subtotal)
	case activeCart.DiscountCodeID != nil:
		codeResult, err = engine.ValidateCodeID(ctx, input.TenantID, *activeCart.DiscountCodeID, subtotal)
	}
	if err != nil {
		return nil, err
	}
	if codeResult != nil {
		discountTotal = codeResult.Amount
	}

	resolver, err := tax.NewResolver(s.taxes.WithTx(tx))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build tax resolver")
	}
	taxLines := make([]tax.Line, 0, len(items))
	for _, item := range items {
		taxLines = append(taxLines, tax.Line{
			ProductID: item.ProductID,
			Subtotal:  item.LineTotal.ScaleBy(subtotal.Sub(discountTotal), subtotal),
		})
	}
	resolved, err := resolver.Resolve(ctx, input.TenantID, shipTo.State, shipTo.Country, taxLines)
	if err != nil {
		return nil, err
	}

	calculator, err := shipping.NewCalculator(s.shipping.WithTx(tx))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shipping calculator")
	}
	var weight *decimal.Decimal
	if hasWeight {
		weight = &weightTotal
	}
	option, err := calculator.PriceMethod(ctx, input.TenantID, input.ShippingMethodID, subtotal.Sub(discountTotal), weight)
	if err != nil {
		return nil, err
	}

	total := subtotal.Sub(discountTotal).Add(resolved.TaxAmount).Add(option.Cost)

	orderID := uuid.New()
	for i := range items {
		items[i].OrderID = orderID
	}
	sessionID := input.SessionID
	order := &models.Order{
		ID:                orderID,
		TenantID:          input.TenantID,
		OrderNumber:       orderNumber(s.cfg.OrderNumberPrefix, s.now()),
		CustomerID:        customer.ID,
		ShippingAddressID: input.ShippingAddressID,
		BillingAddressID:  input.BillingAddressID,
		Status:            enums.OrderStatusPending,
		Subtotal:          subtotal,
		DiscountTotal:     discountTotal,
		TaxTotal:          resolved.TaxAmount,
		ShippingTotal:     option.Cost,
		Total:             total,
		TaxRate:           resolved.Rate,
		TaxJurisdiction:   resolved.Name,
		ShippingMethodID:  &option.MethodID,
		ShippingMethod:    option.Name,
		ShippingCarrier:   option.Carrier,
		Notes:             input.Notes,
		SessionID:         &sessionID,
		Items:             items,
	}
	if resolved.Jurisdiction != nil {
		order.TaxJurisdictionID = &resolved.Jurisdiction.ID
	}
	if codeResult != nil {
		codeID := codeResult.Code.ID
		order.Discounts = []models.OrderDiscount{{
			ID:             uuid.New(),
			OrderID:        orderID,
			DiscountID:     codeResult.Discount.ID,
			DiscountCodeID: &codeID,
			Code:           codeResult.Code.Code,
			Amount:         codeResult.Amount,
		}}
	}

	if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "orders_order_number_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if codeResult != nil {
		ok, err := s.discounts.WithTx(tx).IncrementUsage(ctx, codeResult.Code.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment code usage")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code usage limit reached")
		}
	}

	for i, item := range items {
		ok, err := catalogRepo.DeductStock(ctx, input.TenantID, item.VariantID, item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deduct stock")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("insufficient stock for %s", variants[i].SKU))
		}
	}

	if err := cartRepo.UpdateStatus(ctx, activeCart.ID, enums.CartStatusConverted); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart converted")
	}

	return order, nil
}

// attribute runs only after the transaction has committed; a failure is
// logged, never surfaced.
func (s *service) attribute(ctx context.Context, input Input, order *models.Order) {
	err := s.notifier.AttributeOrder(ctx, attribution.OrderAttribution{
		TenantID:   order.TenantID,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		SessionID:  input.SessionID,
		OrderTotal: order.Total,
	})
	if err != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Warn(ctx, fmt.Sprintf("order attribution failed: %v", err))
	}
}

const orderNumberCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func orderNumber(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "SF"
	}
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to time
		return fmt.Sprintf("%s-%s-%06d", prefix, now.Format("20060102"), now.UnixNano()%1000000)
	}
	for i, b := range buf {
		buf[i] = orderNumberCharset[int(b)%len(orderNumberCharset)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), string(buf))
}
