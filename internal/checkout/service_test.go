package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmercado-dev/shopforge-backend/internal/attribution"
	"github.com/dmercado-dev/shopforge-backend/internal/cart"
	"github.com/dmercado-dev/shopforge-backend/internal/catalog"
	"github.com/dmercado-dev/shopforge-backend/internal/customers"
	"github.com/dmercado-dev/shopforge-backend/internal/discount"
	"github.com/dmercado-dev/shopforge-backend/internal/orders"
	"github.com/dmercado-dev/shopforge-backend/internal/shipping"
	"github.com/dmercado-dev/shopforge-backend/internal/tax"
	"github.com/dmercado-dev/shopforge-backend/pkg/config"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

// uuid defaults in the model tags are postgres-only, so the test schema is
// spelled out by hand and ids are assigned in Go.
var checkoutSchema = []string{
	`CREATE TABLE customers (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, email TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '', last_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE addresses (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, customer_id TEXT NOT NULL,
		line1 TEXT NOT NULL, line2 TEXT, city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL, postal_code TEXT NOT NULL DEFAULT '', country TEXT NOT NULL,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE product_variants (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, product_id TEXT NOT NULL,
		sku TEXT NOT NULL, price TEXT NOT NULL, stock INTEGER NOT NULL DEFAULT 0,
		weight TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE product_tax_settings (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, product_id TEXT NOT NULL,
		exempt INTEGER NOT NULL DEFAULT 1, exemption_category TEXT,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE tax_jurisdictions (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, name TEXT NOT NULL,
		type TEXT NOT NULL, rate TEXT NOT NULL, country_code TEXT NOT NULL,
		state_code TEXT, active INTEGER NOT NULL DEFAULT 1,
		effective_from DATETIME NOT NULL, effective_to DATETIME,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE shipping_methods (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, name TEXT NOT NULL,
		carrier TEXT, calculation TEXT NOT NULL, base_rate TEXT NOT NULL,
		free_threshold TEXT, est_delivery_min INTEGER NOT NULL DEFAULT 0,
		est_delivery_max INTEGER NOT NULL DEFAULT 0, display_order INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE shipping_rate_tiers (
		id TEXT PRIMARY KEY, shipping_method_id TEXT NOT NULL,
		min_value TEXT NOT NULL, max_value TEXT, rate TEXT NOT NULL, created_at DATETIME)`,
	`CREATE TABLE discounts (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL, scope TEXT NOT NULL, value TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1, priority INTEGER NOT NULL DEFAULT 0,
		starts_at DATETIME NOT NULL, ends_at DATETIME,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE discount_codes (
		id TEXT PRIMARY KEY, discount_id TEXT NOT NULL, tenant_id TEXT NOT NULL,
		code TEXT NOT NULL, usage_limit INTEGER, usage_count INTEGER NOT NULL DEFAULT 0,
		min_order_value TEXT, active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE carts (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, session_id TEXT NOT NULL,
		customer_id TEXT, status TEXT NOT NULL DEFAULT 'active', discount_code_id TEXT,
		subtotal TEXT NOT NULL DEFAULT '0', discount_total TEXT NOT NULL DEFAULT '0',
		tax_total TEXT NOT NULL DEFAULT '0', shipping_total TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL DEFAULT '0', expires_at DATETIME NOT NULL,
		last_activity_at DATETIME NOT NULL, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE cart_items (
		id TEXT PRIMARY KEY, cart_id TEXT NOT NULL, variant_id TEXT NOT NULL,
		product_id TEXT NOT NULL, sku TEXT NOT NULL, quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, order_number TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL, shipping_address_id TEXT NOT NULL,
		billing_address_id TEXT NOT NULL, status TEXT NOT NULL DEFAULT 'pending',
		subtotal TEXT NOT NULL, discount_total TEXT NOT NULL DEFAULT '0',
		tax_total TEXT NOT NULL DEFAULT '0', shipping_total TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL, tax_jurisdiction_id TEXT, tax_jurisdiction TEXT NOT NULL DEFAULT '',
		tax_rate TEXT NOT NULL DEFAULT '0', shipping_method_id TEXT,
		shipping_method TEXT NOT NULL DEFAULT '', shipping_carrier TEXT, notes TEXT,
		session_id TEXT, cancelled_at DATETIME, refunded_at DATETIME,
		created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY, order_id TEXT NOT NULL, variant_id TEXT NOT NULL,
		product_id TEXT NOT NULL, sku TEXT NOT NULL, quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL, line_total TEXT NOT NULL, created_at DATETIME)`,
	`CREATE TABLE order_discounts (
		id TEXT PRIMARY KEY, order_id TEXT NOT NULL, discount_id TEXT NOT NULL,
		discount_code_id TEXT, code TEXT NOT NULL DEFAULT '', amount TEXT NOT NULL,
		created_at DATETIME)`,
}

func setupCheckoutDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	for _, stmt := range checkoutSchema {
		require.NoError(t, gdb.Exec(stmt).Error)
	}
	return gdb
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type captureNotifier struct {
	calls []attribution.OrderAttribution
	err   error
}

func (n *captureNotifier) AttributeOrder(_ context.Context, a attribution.OrderAttribution) error {
	n.calls = append(n.calls, a)
	return n.err
}

type checkoutFixture struct {
	db       *gorm.DB
	service  Service
	notifier *captureNotifier
	tenantID uuid.UUID

	customer models.Customer
	shipTo   models.Address
	billTo   models.Address
	variant  models.ProductVariant
	method   models.ShippingMethod
	cart     models.Cart
	code     models.DiscountCode
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	gdb := setupCheckoutDB(t)
	f := &checkoutFixture{db: gdb, notifier: &captureNotifier{}, tenantID: uuid.New()}

	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(
		gormTxRunner{db: gdb},
		cart.NewRepository(gdb),
		orders.NewRepository(gdb),
		customers.NewRepository(gdb),
		catalog.NewRepository(gdb),
		discount.NewRepository(gdb),
		tax.NewRepository(gdb),
		shipping.NewRepository(gdb),
		f.notifier,
		nil,
		logg,
		config.CheckoutConfig{OrderNumberPrefix: "SF"},
	)
	require.NoError(t, err)
	f.service = svc
	return f
}

// seed sets up the worked scenario: 2 x 50.00 in the cart, SAVE20 attached,
// California at 7.25%, flat 5.99 shipping.
func (f *checkoutFixture) seed(t *testing.T) {
	t.Helper()
	now := time.Now()

	f.customer = models.Customer{ID: uuid.New(), TenantID: f.tenantID, Email: "buyer@example.com"}
	require.NoError(t, f.db.Create(&f.customer).Error)

	f.shipTo = models.Address{
		ID: uuid.New(), TenantID: f.tenantID, CustomerID: f.customer.ID,
		Line1: "1 Main St", State: "CA", Country: "US",
	}
	require.NoError(t, f.db.Create(&f.shipTo).Error)
	f.billTo = models.Address{
		ID: uuid.New(), TenantID: f.tenantID, CustomerID: f.customer.ID,
		Line1: "2 Billing Ave", State: "CA", Country: "US",
	}
	require.NoError(t, f.db.Create(&f.billTo).Error)

	f.variant = models.ProductVariant{
		ID: uuid.New(), TenantID: f.tenantID, ProductID: uuid.New(),
		SKU: "TEE-L", Price: money.MustParse("50.00"), Stock: 10,
	}
	require.NoError(t, f.db.Create(&f.variant).Error)

	state := "CA"
	jurisdiction := models.TaxJurisdiction{
		ID: uuid.New(), TenantID: f.tenantID, Name: "California",
		Type: enums.JurisdictionTypeState, Rate: decimal.RequireFromString("0.0725"),
		CountryCode: "US", StateCode: &state, Active: true,
		EffectiveFrom: now.Add(-24 * time.Hour),
	}
	require.NoError(t, f.db.Create(&jurisdiction).Error)

	f.method = models.ShippingMethod{
		ID: uuid.New(), TenantID: f.tenantID, Name: "Standard",
		Calculation: enums.ShippingCalculationFlatRate,
		BaseRate:    money.MustParse("5.99"), Active: true,
	}
	require.NoError(t, f.db.Create(&f.method).Error)

	parent := models.Discount{
		ID: uuid.New(), TenantID: f.tenantID, Name: "Save 20",
		Type: enums.DiscountTypePercentage, Scope: enums.DiscountScopeCode,
		Value: decimal.RequireFromString("20"), Active: true,
		StartsAt: now.Add(-time.Hour),
	}
	require.NoError(t, f.db.Create(&parent).Error)
	limit := 5
	f.code = models.DiscountCode{
		ID: uuid.New(), DiscountID: parent.ID, TenantID: f.tenantID,
		Code: "SAVE20", UsageLimit: &limit, Active: true,
	}
	require.NoError(t, f.db.Create(&f.code).Error)

	codeID := f.code.ID
	f.cart = models.Cart{
		ID: uuid.New(), TenantID: f.tenantID, SessionID: "sess-1",
		CustomerID: &f.customer.ID, Status: enums.CartStatusActive,
		DiscountCodeID: &codeID,
		ExpiresAt:      now.Add(time.Hour), LastActivityAt: now,
	}
	require.NoError(t, f.db.Create(&f.cart).Error)
	item := models.CartItem{
		ID: uuid.New(), CartID: f.cart.ID, VariantID: f.variant.ID,
		ProductID: f.variant.ProductID, SKU: f.variant.SKU,
		Quantity: 2, UnitPrice: money.MustParse("50.00"),
	}
	require.NoError(t, f.db.Create(&item).Error)
}

func (f *checkoutFixture) input() Input {
	return Input{
		TenantID:          f.tenantID,
		SessionID:         "sess-1",
		CustomerID:        f.customer.ID,
		ShippingAddressID: f.shipTo.ID,
		BillingAddressID:  f.billTo.ID,
		ShippingMethodID:  f.method.ID,
	}
}

func TestExecuteCreatesOrderWithSnapshots(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)

	order, err := f.service.Execute(context.Background(), f.input())
	require.NoError(t, err)

	require.Equal(t, "100.00", order.Subtotal.String())
	require.Equal(t, "20.00", order.DiscountTotal.String())
	require.Equal(t, "5.80", order.TaxTotal.String())
	require.Equal(t, "5.99", order.ShippingTotal.String())
	require.Equal(t, "91.79", order.Total.String())
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, "California", order.TaxJurisdiction)
	require.Equal(t, "Standard", order.ShippingMethod)
	require.Regexp(t, `^SF-\d{8}-[A-Z2-9]{6}$`, order.OrderNumber)

	var persisted models.Order
	require.NoError(t, f.db.Preload("Items").Preload("Discounts").
		Where("id = ?", order.ID).First(&persisted).Error)
	require.Len(t, persisted.Items, 1)
	require.Equal(t, 2, persisted.Items[0].Quantity)
	require.Equal(t, "50.00", persisted.Items[0].UnitPrice.String())
	require.Len(t, persisted.Discounts, 1)
	require.Equal(t, "SAVE20", persisted.Discounts[0].Code)
	require.Equal(t, "20.00", persisted.Discounts[0].Amount.String())

	var variant models.ProductVariant
	require.NoError(t, f.db.Where("id = ?", f.variant.ID).First(&variant).Error)
	require.Equal(t, 8, variant.Stock)

	var code models.DiscountCode
	require.NoError(t, f.db.Where("id = ?", f.code.ID).First(&code).Error)
	require.Equal(t, 1, code.UsageCount)

	var cartRow models.Cart
	require.NoError(t, f.db.Where("id = ?", f.cart.ID).First(&cartRow).Error)
	require.Equal(t, enums.CartStatusConverted, cartRow.Status)

	require.Len(t, f.notifier.calls, 1)
	require.Equal(t, "sess-1", f.notifier.calls[0].SessionID)
	require.Equal(t, order.ID, f.notifier.calls[0].OrderID)
}

func TestExecuteUsesLivePricesNotSnapshots(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)

	// price raised after the item entered the cart
	require.NoError(t, f.db.Model(&models.ProductVariant{}).
		Where("id = ?", f.variant.ID).
		Update("price", money.MustParse("60.00")).Error)

	order, err := f.service.Execute(context.Background(), f.input())
	require.NoError(t, err)
	require.Equal(t, "120.00", order.Subtotal.String())
	require.Equal(t, "60.00", order.Items[0].UnitPrice.String())
}

func TestExecuteInsufficientStockRollsBackEverything(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)

	require.NoError(t, f.db.Model(&models.ProductVariant{}).
		Where("id = ?", f.variant.ID).
		Update("stock", 1).Error)

	_, err := f.service.Execute(context.Background(), f.input())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)

	var itemCount int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	require.Zero(t, itemCount)

	// the usage increment inside the failed transaction must be undone
	var code models.DiscountCode
	require.NoError(t, f.db.Where("id = ?", f.code.ID).First(&code).Error)
	require.Zero(t, code.UsageCount)

	var cartRow models.Cart
	require.NoError(t, f.db.Where("id = ?", f.cart.ID).First(&cartRow).Error)
	require.Equal(t, enums.CartStatusActive, cartRow.Status)

	require.Empty(t, f.notifier.calls)
}

func TestExecuteExhaustedCodeRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)

	require.NoError(t, f.db.Model(&models.DiscountCode{}).
		Where("id = ?", f.code.ID).
		Updates(map[string]any{"usage_limit": 1, "usage_count": 1}).Error)

	_, err := f.service.Execute(context.Background(), f.input())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, "discount code usage limit reached", typed.Message())

	var variant models.ProductVariant
	require.NoError(t, f.db.Where("id = ?", f.variant.ID).First(&variant).Error)
	require.Equal(t, 10, variant.Stock)

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
}

func TestExecuteAttributionFailureDoesNotFailCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)
	f.notifier.err = fmt.Errorf("analytics is down")

	order, err := f.service.Execute(context.Background(), f.input())
	require.NoError(t, err)
	require.NotNil(t, order)

	var persisted models.Order
	require.NoError(t, f.db.Where("id = ?", order.ID).First(&persisted).Error)
}

func TestExecuteEmptyCartRejected(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)
	require.NoError(t, f.db.Where("cart_id = ?", f.cart.ID).Delete(&models.CartItem{}).Error)

	_, err := f.service.Execute(context.Background(), f.input())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, "cart is empty", typed.Message())
}

func TestExecuteUnknownShippingMethodIsTerminal(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seed(t)

	input := f.input()
	input.ShippingMethodID = uuid.New()

	_, err := f.service.Execute(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
}
