package tax

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JurisdictionRepo is the data access the resolver needs.
type JurisdictionRepo interface {
	FindStateJurisdiction(ctx context.Context, tenantID uuid.UUID, stateCode, countryCode string, at time.Time) (*models.TaxJurisdiction, error)
	FindCountryJurisdiction(ctx context.Context, tenantID uuid.UUID, countryCode string, at time.Time) (*models.TaxJurisdiction, error)
	ExemptProductIDs(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// Line pairs a product with its (possibly discount-scaled) taxable subtotal.
type Line struct {
	ProductID uuid.UUID
	Subtotal  money.Amount
}

// Result describes the single resolved jurisdiction and the computed tax.
// Jurisdiction is nil when resolution degraded to the zero-rate fallback.
type Result struct {
	Jurisdiction    *models.TaxJurisdiction
	Name            string
	Rate            decimal.Decimal
	TaxableSubtotal money.Amount
	ExemptSubtotal  money.Amount
	TaxAmount       money.Amount
}

// Resolver picks at most one applicable jurisdiction per call: an exact
// state match wins, a country-level row is the fallback, and no match
// degrades to zero tax rather than erroring.
type Resolver struct {
	repo JurisdictionRepo
	now  func() time.Time
}

// NewResolver builds a tax resolver.
func NewResolver(repo JurisdictionRepo) (*Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("jurisdiction repository required")
	}
	return &Resolver{repo: repo, now: time.Now}, nil
}

// WithClock overrides the resolver's time source. Test hook.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve is a pure read: it never mutates state and never fails on an
// unresolved jurisdiction.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, stateCode, countryCode string, lines []Line) (*Result, error) {
	state := normalizeCode(stateCode)
	country := normalizeCode(countryCode)
	at := r.now()

	jurisdiction, err := r.lookup(ctx, tenantID, state, country, at)
	if err != nil {
		return nil, err
	}

	total := money.Zero()
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}

	if jurisdiction == nil {
		return &Result{
			Name:            "No Tax",
			Rate:            decimal.Zero,
			TaxableSubtotal: total,
		}, nil
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	exempt, err := r.repo.ExemptProductIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax exemptions")
	}

	taxable := money.Zero()
	exemptTotal := money.Zero()
	for _, line := range lines {
		if _, ok := exempt[line.ProductID]; ok {
			exemptTotal = exemptTotal.Add(line.Subtotal)
			continue
		}
		taxable = taxable.Add(line.Subtotal)
	}

	return &Result{
		Jurisdiction:    jurisdiction,
		Name:            jurisdiction.Name,
		Rate:            jurisdiction.Rate,
		TaxableSubtotal: taxable,
		ExemptSubtotal:  exemptTotal,
		TaxAmount:       taxable.MulRate(jurisdiction.Rate),
	}, nil
}

func (r *Resolver) lookup(ctx context.Context, tenantID uuid.UUID, state, country string, at time.Time) (*models.TaxJurisdiction, error) {
	if state != "" && country != "" {
		row, err := r.repo.FindStateJurisdiction(ctx, tenantID, state, country, at)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load state jurisdiction")
		}
	}

	if country != "" {
		row, err := r.repo.FindCountryJurisdiction(ctx, tenantID, country, at)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load country jurisdiction")
		}
	}

	return nil, nil
}

func normalizeCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
