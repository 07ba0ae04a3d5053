package shipping

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MethodRepo is the data access the calculator needs.
type MethodRepo interface {
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]models.ShippingMethod, error)
	FindActive(ctx context.Context, tenantID, methodID uuid.UUID) (*models.ShippingMethod, error)
}

// Option is one priced shipping choice for a given order.
type Option struct {
	MethodID       uuid.UUID    `json:"method_id"`
	Name           string       `json:"name"`
	Carrier        *string      `json:"carrier,omitempty"`
	Cost           money.Amount `json:"cost"`
	IsFree         bool         `json:"is_free"`
	EstDeliveryMin int          `json:"est_delivery_min"`
	EstDeliveryMax int          `json:"est_delivery_max"`
}

// Calculator prices shipping methods against an order's subtotal and weight.
type Calculator struct {
	repo MethodRepo
}

// NewCalculator builds a shipping calculator.
func NewCalculator(repo MethodRepo) (*Calculator, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping method repository required")
	}
	return &Calculator{repo: repo}, nil
}

// Options prices every active method for the tenant. A nil weight is treated
// as zero for weight-based methods.
func (c *Calculator) Options(ctx context.Context, tenantID uuid.UUID, subtotal money.Amount, weight *decimal.Decimal) ([]Option, error) {
	methods, err := c.repo.ListActive(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping methods")
	}

	options := make([]Option, 0, len(methods))
	for i := range methods {
		option, err := buildOption(&methods[i], subtotal, weight)
		if err != nil {
			return nil, err
		}
		options = append(options, *option)
	}
	return options, nil
}

// PriceMethod prices one method by id. An unknown or inactive method is a
// terminal error, not a fallback.
func (c *Calculator) PriceMethod(ctx context.Context, tenantID, methodID uuid.UUID, subtotal money.Amount, weight *decimal.Decimal) (*Option, error) {
	method, err := c.repo.FindActive(ctx, tenantID, methodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping method not found or inactive")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping method")
	}
	return buildOption(method, subtotal, weight)
}

func buildOption(method *models.ShippingMethod, subtotal money.Amount, weight *decimal.Decimal) (*Option, error) {
	cost, free, err := price(method, subtotal, weight)
	if err != nil {
		return nil, err
	}
	return &Option{
		MethodID:       method.ID,
		Name:           method.Name,
		Carrier:        method.Carrier,
		Cost:           cost,
		IsFree:         free,
		EstDeliveryMin: method.EstDeliveryMin,
		EstDeliveryMax: method.EstDeliveryMax,
	}, nil
}

// price dispatches on the closed set of calculation types. An unrecognized
// value in storage is corrupt configuration and fails loudly.
func price(method *models.ShippingMethod, subtotal money.Amount, weight *decimal.Decimal) (money.Amount, bool, error) {
	switch method.Calculation {
	case enums.ShippingCalculationFlatRate:
		return method.BaseRate, false, nil

	case enums.ShippingCalculationFreeThreshold:
		if method.FreeThreshold != nil && subtotal.Cmp(*method.FreeThreshold) >= 0 {
			return money.Zero(), true, nil
		}
		return method.BaseRate, false, nil

	case enums.ShippingCalculationWeightBased:
		value := decimal.Zero
		if weight != nil {
			value = *weight
		}
		return tierRate(method, value), false, nil

	case enums.ShippingCalculationPriceTier:
		return tierRate(method, subtotal.Decimal()), false, nil

	default:
		return money.Zero(), false, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("unknown shipping calculation type %q", method.Calculation))
	}
}

// tierRate scans brackets ascending by floor and picks the first one holding
// value: min inclusive, max exclusive, nil max unbounded. No bracket means the
// method's base rate applies.
func tierRate(method *models.ShippingMethod, value decimal.Decimal) money.Amount {
	tiers := make([]models.ShippingRateTier, len(method.RateTiers))
	copy(tiers, method.RateTiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinValue.LessThan(tiers[j].MinValue)
	})

	for _, tier := range tiers {
		if value.LessThan(tier.MinValue) {
			continue
		}
		if tier.MaxValue != nil && !value.LessThan(*tier.MaxValue) {
			continue
		}
		return tier.Rate
	}
	return method.BaseRate
}
