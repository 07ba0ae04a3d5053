package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CodeRepo is the data access code validation needs.
type CodeRepo interface {
	FindCodeWithDiscount(ctx context.Context, tenantID uuid.UUID, code string) (*models.DiscountCode, error)
	FindCodeByID(ctx context.Context, tenantID, codeID uuid.UUID) (*models.DiscountCode, error)
	ListApplicable(ctx context.Context, tenantID, productID uuid.UUID, collectionID, variantID *uuid.UUID, at time.Time) ([]models.Discount, error)
}

// CodeResult is a validated code plus its priced amount against the order
// total it was validated for.
type CodeResult struct {
	Code     *models.DiscountCode
	Discount *models.Discount
	Amount   money.Amount
}

// ScopeRef identifies the catalog position a non-code discount lookup runs
// against.
type ScopeRef struct {
	ProductID    uuid.UUID
	CollectionID *uuid.UUID
	VariantID    *uuid.UUID
}

// Engine validates discount codes and selects applicable non-code discounts.
// Validation is side-effect free; usage accounting happens only inside the
// order transaction.
type Engine struct {
	repo CodeRepo
	now  func() time.Time
}

// NewEngine builds a discount engine.
func NewEngine(repo CodeRepo) (*Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &Engine{repo: repo, now: time.Now}, nil
}

// WithClock overrides the engine's time source. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ValidateCode checks a code string against the tenant and prices it for the
// given order total. Every failure mode has a distinct message so callers can
// surface it verbatim.
func (e *Engine) ValidateCode(ctx context.Context, tenantID uuid.UUID, code string, orderTotal money.Amount) (*CodeResult, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	row, err := e.repo.FindCodeWithDiscount(ctx, tenantID, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	return e.validate(row, orderTotal)
}

// ValidateCodeID revalidates a previously attached code by id against a fresh
// total. Used by totals calculation and checkout so a stale attachment cannot
// smuggle an expired or exhausted code into an order.
func (e *Engine) ValidateCodeID(ctx context.Context, tenantID, codeID uuid.UUID, orderTotal money.Amount) (*CodeResult, error) {
	row, err := e.repo.FindCodeByID(ctx, tenantID, codeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	return e.validate(row, orderTotal)
}

func (e *Engine) validate(row *models.DiscountCode, orderTotal money.Amount) (*CodeResult, error) {
	if !row.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is not active")
	}
	if row.UsageLimit != nil && row.UsageCount >= *row.UsageLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code usage limit reached")
	}
	if row.MinOrderValue != nil && orderTotal.Cmp(*row.MinOrderValue) < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total is below the discount minimum")
	}

	parent := row.Discount
	if parent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "discount code has no parent discount")
	}
	now := e.now()
	if !parent.Active || parent.StartsAt.After(now) || (parent.EndsAt != nil && !parent.EndsAt.After(now)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount is not currently active")
	}

	amount, err := Price(parent, orderTotal)
	if err != nil {
		return nil, err
	}
	return &CodeResult{Code: row, Discount: parent, Amount: amount}, nil
}

// Best returns the single applicable non-code discount producing the largest
// amount against price, nil when none apply. Priority breaks amount ties.
func (e *Engine) Best(ctx context.Context, tenantID uuid.UUID, ref ScopeRef, price money.Amount) (*models.Discount, money.Amount, error) {
	rows, err := e.repo.ListApplicable(ctx, tenantID, ref.ProductID, ref.CollectionID, ref.VariantID, e.now())
	if err != nil {
		return nil, money.Zero(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applicable discounts")
	}

	var best *models.Discount
	bestAmount := money.Zero()
	for i := range rows {
		amount, err := Price(&rows[i], price)
		if err != nil {
			return nil, money.Zero(), err
		}
		// rows arrive priority-descending, so strict greater keeps the
		// higher-priority discount on amount ties
		if best == nil || amount.Cmp(bestAmount) > 0 {
			best = &rows[i]
			bestAmount = amount
		}
	}
	if best == nil {
		return nil, money.Zero(), nil
	}
	return best, bestAmount, nil
}

// Price computes a discount's monetary amount against a total. Both types
// clamp to the total so the result never drives it negative.
func Price(d *models.Discount, total money.Amount) (money.Amount, error) {
	switch d.Type {
	case enums.DiscountTypePercentage:
		return money.Min(total.Percent(d.Value), total), nil
	case enums.DiscountTypeFixedAmount:
		return money.Min(money.FromDecimal(d.Value), total), nil
	default:
		return money.Zero(), pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("unknown discount type %q", d.Type))
	}
}
