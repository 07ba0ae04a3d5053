package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmercado-dev/shopforge-backend/internal/catalog"
	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
)

var ordersSchema = []string{
	`CREATE TABLE product_variants (
		id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, product_id TEXT NOT NULL,
		sku TEXT NOT NULL, price TEXT NOT NULL, stock INTEGER NOT NULL DEFAULT 0,
		weight TEXT, created_at DATETIME, updated_at DATETIME)`,
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

func setupOrdersDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	for _, stmt := range ordersSchema {
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

type ordersFixture struct {
	db       *gorm.DB
	service  Service
	tenantID uuid.UUID
	variant  models.ProductVariant
	order    models.Order
}

func newOrdersFixture(t *testing.T, status enums.OrderStatus) *ordersFixture {
	t.Helper()
	gdb := setupOrdersDB(t)
	f := &ordersFixture{db: gdb, tenantID: uuid.New()}

	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(gormTxRunner{db: gdb}, NewRepository(gdb), catalog.NewRepository(gdb), nil, logg)
	require.NoError(t, err)
	f.service = svc

	f.variant = models.ProductVariant{
		ID: uuid.New(), TenantID: f.tenantID, ProductID: uuid.New(),
		SKU: "TEE-L", Price: money.MustParse("50.00"), Stock: 8,
	}
	require.NoError(t, gdb.Create(&f.variant).Error)

	f.order = models.Order{
		ID: uuid.New(), TenantID: f.tenantID,
		OrderNumber: "SF-20260824-ABC123",
		CustomerID:  uuid.New(), ShippingAddressID: uuid.New(), BillingAddressID: uuid.New(),
		Status:   status,
		Subtotal: money.MustParse("100.00"), Total: money.MustParse("100.00"),
		Items: []models.OrderItem{{
			ID: uuid.New(), VariantID: f.variant.ID, ProductID: f.variant.ProductID,
			SKU: f.variant.SKU, Quantity: 2,
			UnitPrice: money.MustParse("50.00"), LineTotal: money.MustParse("100.00"),
		}},
	}
	f.order.Items[0].OrderID = f.order.ID
	require.NoError(t, gdb.Create(&f.order).Error)
	return f
}

func (f *ordersFixture) stock(t *testing.T) int {
	t.Helper()
	var v models.ProductVariant
	require.NoError(t, f.db.Where("id = ?", f.variant.ID).First(&v).Error)
	return v.Stock
}

func requireStateConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestForwardChainOneStepAtATime(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	for _, next := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		order, err := f.service.UpdateStatus(ctx, f.tenantID, f.order.ID, next)
		require.NoError(t, err, "to %s", next)
		require.Equal(t, next, order.Status)
	}

	// fulfilment transitions never touch stock
	require.Equal(t, 8, f.stock(t))
}

func TestSkippingAStepRejected(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)

	_, err := f.service.UpdateStatus(context.Background(), f.tenantID, f.order.ID, enums.OrderStatusShipped)
	requireStateConflict(t, err)
}

func TestCancelFromPendingRestoresStock(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)
	reason := "customer changed their mind"

	order, err := f.service.Cancel(context.Background(), f.tenantID, f.order.ID, &reason)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, order.Status)
	require.NotNil(t, order.CancelledAt)
	require.NotNil(t, order.Notes)
	require.Contains(t, *order.Notes, "Cancellation reason: customer changed their mind")

	require.Equal(t, 10, f.stock(t))
}

func TestCancelAfterShipmentRejected(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusShipped)

	_, err := f.service.Cancel(context.Background(), f.tenantID, f.order.ID, nil)
	requireStateConflict(t, err)
	require.Equal(t, 8, f.stock(t))
}

func TestCancelDeliveredOrderRejected(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusDelivered)

	_, err := f.service.Cancel(context.Background(), f.tenantID, f.order.ID, nil)
	requireStateConflict(t, err)
}

func TestRefundFromDeliveredRestoresStock(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusDelivered)

	order, err := f.service.Refund(context.Background(), f.tenantID, f.order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRefunded, order.Status)
	require.NotNil(t, order.RefundedAt)
	require.Equal(t, 10, f.stock(t))
}

func TestRefundAfterCancelDoesNotRestoreTwice(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	_, err := f.service.Cancel(ctx, f.tenantID, f.order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 10, f.stock(t))

	order, err := f.service.Refund(ctx, f.tenantID, f.order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusRefunded, order.Status)
	require.Equal(t, 10, f.stock(t), "cancelled orders already restored stock")
}

func TestRefundFromPendingRejected(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)

	_, err := f.service.Refund(context.Background(), f.tenantID, f.order.ID, nil)
	requireStateConflict(t, err)
}

func TestAppendNoteSeparatesWithBlankLine(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)
	ctx := context.Background()

	first, err := f.service.AppendNote(ctx, f.tenantID, f.order.ID, "packed with extra care")
	require.NoError(t, err)
	require.Equal(t, "packed with extra care", *first.Notes)

	second, err := f.service.AppendNote(ctx, f.tenantID, f.order.ID, "left at the front desk")
	require.NoError(t, err)
	require.Equal(t, "packed with extra care\n\nleft at the front desk", *second.Notes)
}

func TestAppendEmptyNoteRejected(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)

	_, err := f.service.AppendNote(context.Background(), f.tenantID, f.order.ID, "   ")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)

	_, err := f.service.UpdateStatus(context.Background(), f.tenantID, uuid.New(), enums.OrderStatusProcessing)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCrossTenantOrderInvisible(t *testing.T) {
	f := newOrdersFixture(t, enums.OrderStatusPending)

	_, err := f.service.UpdateStatus(context.Background(), uuid.New(), f.order.ID, enums.OrderStatusProcessing)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
