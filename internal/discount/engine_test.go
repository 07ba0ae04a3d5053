package discount

import (
	"context"
	"testing"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubCodeRepo struct {
	codes      map[string]*models.DiscountCode
	applicable []models.Discount
}

func (s *stubCodeRepo) FindCodeWithDiscount(_ context.Context, _ uuid.UUID, code string) (*models.DiscountCode, error) {
	if row, ok := s.codes[code]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCodeRepo) FindCodeByID(_ context.Context, _ uuid.UUID, codeID uuid.UUID) (*models.DiscountCode, error) {
	for _, row := range s.codes {
		if row.ID == codeID {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCodeRepo) ListApplicable(_ context.Context, _ uuid.UUID, _ uuid.UUID, _, _ *uuid.UUID, _ time.Time) ([]models.Discount, error) {
	return s.applicable, nil
}

func percentDiscount(value string) *models.Discount {
	return &models.Discount{
		ID:       uuid.New(),
		Type:     enums.DiscountTypePercentage,
		Scope:    enums.DiscountScopeCode,
		Value:    decimal.RequireFromString(value),
		Active:   true,
		StartsAt: time.Now().Add(-time.Hour),
	}
}

func fixedDiscount(value string) *models.Discount {
	return &models.Discount{
		ID:       uuid.New(),
		Type:     enums.DiscountTypeFixedAmount,
		Scope:    enums.DiscountScopeCode,
		Value:    decimal.RequireFromString(value),
		Active:   true,
		StartsAt: time.Now().Add(-time.Hour),
	}
}

func activeCode(code string, parent *models.Discount) *models.DiscountCode {
	return &models.DiscountCode{
		ID:         uuid.New(),
		DiscountID: parent.ID,
		Code:       code,
		Active:     true,
		Discount:   parent,
	}
}

func newEngine(t *testing.T, repo CodeRepo) *Engine {
	t.Helper()
	engine, err := NewEngine(repo)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func assertValidationMessage(t *testing.T, err error, want string) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s", typed.Code())
	}
	if typed.Message() != want {
		t.Fatalf("expected message %q, got %q", want, typed.Message())
	}
}

func TestValidateCodePercentagePricing(t *testing.T) {
	repo := &stubCodeRepo{codes: map[string]*models.DiscountCode{
		"SAVE20": activeCode("SAVE20", percentDiscount("20")),
	}}
	engine := newEngine(t, repo)

	result, err := engine.ValidateCode(context.Background(), uuid.New(), "save20", money.MustParse("100.00"))
	if err != nil {
		t.Fatalf("ValidateCode: %v", err)
	}
	if got := result.Amount.String(); got != "20.00" {
		t.Fatalf("expected 20.00, got %s", got)
	}
}

func TestValidateCodePercentageOverHundredClampsToTotal(t *testing.T) {
	repo := &stubCodeRepo{codes: map[string]*models.DiscountCode{
		"MEGA": activeCode("MEGA", percentDiscount("150")),
	}}
	engine := newEngine(t, repo)

	result, err := engine.ValidateCode(context.Background(), uuid.New(), "MEGA", money.MustParse("100.00"))
	if err != nil {
		t.Fatalf("ValidateCode: %v", err)
	}
	if got := result.Amount.String(); got != "100.00" {
		t.Fatalf("percentage discount must clamp to total, got %s", got)
	}
}

func TestValidateCodeFixedClampsToTotal(t *testing.T) {
	repo := &stubCodeRepo{codes: map[string]*models.DiscountCode{
		"TENOFF": activeCode("TENOFF", fixedDiscount("10")),
	}}
	engine := newEngine(t, repo)

	result, err := engine.ValidateCode(context.Background(), uuid.New(), "TENOFF", money.MustParse("7.50"))
	if err != nil {
		t.Fatalf("ValidateCode: %v", err)
	}
	if got := result.Amount.String(); got != "7.50" {
		t.Fatalf("fixed discount must clamp to total, got %s", got)
	}
}

func TestValidateCodeUnknown(t *testing.T) {
	engine := newEngine(t, &stubCodeRepo{})

	_, err := engine.ValidateCode(context.Background(), uuid.New(), "NOPE", money.MustParse("10.00"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestValidateCodeInactive(t *testing.T) {
	code := activeCode("OLD", percentDiscount("10"))
	code.Active = false
	engine := newEngine(t, &stubCodeRepo{codes: map[string]*models.DiscountCode{"OLD": code}})

	_, err := engine.ValidateCode(context.Background(), uuid.New(), "OLD", money.MustParse("10.00"))
	assertValidationMessage(t, err, "discount code is not active")
}

func TestValidateCodeUsageLimitReached(t *testing.T) {
	limit := 3
	code := activeCode("LIMITED", percentDiscount("10"))
	code.UsageLimit = &limit
	code.UsageCount = 3
	engine := newEngine(t, &stubCodeRepo{codes: map[string]*models.DiscountCode{"LIMITED": code}})

	_, err := engine.ValidateCode(context.Background(), uuid.New(), "LIMITED", money.MustParse("10.00"))
	assertValidationMessage(t, err, "discount code usage limit reached")
}

func TestValidateCodeBelowMinimum(t *testing.T) {
	min := money.MustParse("50.00")
	code := activeCode("BIGSPEND", percentDiscount("10"))
	code.MinOrderValue = &min
	engine := newEngine(t, &stubCodeRepo{codes: map[string]*models.DiscountCode{"BIGSPEND": code}})

	_, err := engine.ValidateCode(context.Background(), uuid.New(), "BIGSPEND", money.MustParse("49.99"))
	assertValidationMessage(t, err, "order total is below the discount minimum")
}

func TestValidateCodeExpiredParent(t *testing.T) {
	parent := percentDiscount("10")
	ended := time.Now().Add(-time.Minute)
	parent.EndsAt = &ended
	engine := newEngine(t, &stubCodeRepo{codes: map[string]*models.DiscountCode{
		"EXPIRED": activeCode("EXPIRED", parent),
	}})

	_, err := engine.ValidateCode(context.Background(), uuid.New(), "EXPIRED", money.MustParse("10.00"))
	assertValidationMessage(t, err, "discount is not currently active")
}

func TestBestPicksHighestAmount(t *testing.T) {
	ten := *percentDiscount("10")
	ten.Scope = enums.DiscountScopeStoreWide
	ten.Priority = 5
	five := *fixedDiscount("5")
	five.Scope = enums.DiscountScopeProduct
	five.Priority = 10

	engine := newEngine(t, &stubCodeRepo{applicable: []models.Discount{five, ten}})

	best, amount, err := engine.Best(context.Background(), uuid.New(), ScopeRef{ProductID: uuid.New()}, money.MustParse("100.00"))
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if best == nil || best.ID != ten.ID {
		t.Fatalf("expected the 10%% discount (10.00 beats 5.00)")
	}
	if got := amount.String(); got != "10.00" {
		t.Fatalf("expected 10.00, got %s", got)
	}
}

func TestBestNoneApplicable(t *testing.T) {
	engine := newEngine(t, &stubCodeRepo{})

	best, amount, err := engine.Best(context.Background(), uuid.New(), ScopeRef{ProductID: uuid.New()}, money.MustParse("100.00"))
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if best != nil {
		t.Fatalf("expected nil when nothing applies")
	}
	if !amount.IsZero() {
		t.Fatalf("expected zero amount, got %s", amount)
	}
}
