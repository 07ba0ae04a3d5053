package tax

import (
	"context"
	"testing"
	"time"

	"github.com/dmercado-dev/shopforge-backend/pkg/db/models"
	"github.com/dmercado-dev/shopforge-backend/pkg/enums"
	"github.com/dmercado-dev/shopforge-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubJurisdictionRepo struct {
	state   *models.TaxJurisdiction
	country *models.TaxJurisdiction
	exempt  map[uuid.UUID]struct{}

	stateCalls   int
	countryCalls int
}

func (s *stubJurisdictionRepo) FindStateJurisdiction(_ context.Context, _ uuid.UUID, _, _ string, _ time.Time) (*models.TaxJurisdiction, error) {
	s.stateCalls++
	if s.state == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.state, nil
}

func (s *stubJurisdictionRepo) FindCountryJurisdiction(_ context.Context, _ uuid.UUID, _ string, _ time.Time) (*models.TaxJurisdiction, error) {
	s.countryCalls++
	if s.country == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.country, nil
}

func (s *stubJurisdictionRepo) ExemptProductIDs(_ context.Context, _ uuid.UUID, _ []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if s.exempt == nil {
		return map[uuid.UUID]struct{}{}, nil
	}
	return s.exempt, nil
}

func stateRow(name string, rate string) *models.TaxJurisdiction {
	code := "CA"
	return &models.TaxJurisdiction{
		ID:          uuid.New(),
		Name:        name,
		Type:        enums.JurisdictionTypeState,
		Rate:        decimal.RequireFromString(rate),
		CountryCode: "US",
		StateCode:   &code,
	}
}

func countryRow(name string, rate string) *models.TaxJurisdiction {
	return &models.TaxJurisdiction{
		ID:          uuid.New(),
		Name:        name,
		Type:        enums.JurisdictionTypeCountry,
		Rate:        decimal.RequireFromString(rate),
		CountryCode: "US",
	}
}

func TestResolveStateMatchWinsOverCountry(t *testing.T) {
	repo := &stubJurisdictionRepo{
		state:   stateRow("California", "0.0725"),
		country: countryRow("United States", "0.05"),
	}
	resolver, err := NewResolver(repo)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	result, err := resolver.Resolve(context.Background(), uuid.New(), "ca", "us", []Line{
		{ProductID: uuid.New(), Subtotal: money.MustParse("80.00")},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if result.Name != "California" {
		t.Fatalf("expected state jurisdiction, got %q", result.Name)
	}
	if got := result.TaxAmount.String(); got != "5.80" {
		t.Fatalf("expected tax 5.80, got %s", got)
	}
	if repo.countryCalls != 0 {
		t.Fatalf("country lookup should be skipped when state matches")
	}
}

func TestResolveFallsBackToCountry(t *testing.T) {
	repo := &stubJurisdictionRepo{country: countryRow("United States", "0.05")}
	resolver, _ := NewResolver(repo)

	result, err := resolver.Resolve(context.Background(), uuid.New(), "TX", "US", []Line{
		{ProductID: uuid.New(), Subtotal: money.MustParse("100.00")},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if result.Name != "United States" {
		t.Fatalf("expected country fallback, got %q", result.Name)
	}
	if got := result.TaxAmount.String(); got != "5.00" {
		t.Fatalf("expected tax 5.00, got %s", got)
	}
}

func TestResolveNoMatchIsZeroRate(t *testing.T) {
	repo := &stubJurisdictionRepo{}
	resolver, _ := NewResolver(repo)

	result, err := resolver.Resolve(context.Background(), uuid.New(), "BC", "CA", []Line{
		{ProductID: uuid.New(), Subtotal: money.MustParse("50.00")},
	})
	if err != nil {
		t.Fatalf("unresolved jurisdiction must not error: %v", err)
	}

	if result.Jurisdiction != nil {
		t.Fatalf("expected nil jurisdiction")
	}
	if result.Name != "No Tax" {
		t.Fatalf("expected zero-rate name, got %q", result.Name)
	}
	if !result.TaxAmount.IsZero() {
		t.Fatalf("expected zero tax, got %s", result.TaxAmount)
	}
}

func TestResolveExemptProductsExcluded(t *testing.T) {
	exemptID := uuid.New()
	taxableID := uuid.New()
	repo := &stubJurisdictionRepo{
		state:  stateRow("California", "0.10"),
		exempt: map[uuid.UUID]struct{}{exemptID: {}},
	}
	resolver, _ := NewResolver(repo)

	result, err := resolver.Resolve(context.Background(), uuid.New(), "CA", "US", []Line{
		{ProductID: taxableID, Subtotal: money.MustParse("40.00")},
		{ProductID: exemptID, Subtotal: money.MustParse("60.00")},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := result.TaxableSubtotal.String(); got != "40.00" {
		t.Fatalf("expected taxable 40.00, got %s", got)
	}
	if got := result.ExemptSubtotal.String(); got != "60.00" {
		t.Fatalf("expected exempt 60.00, got %s", got)
	}
	if got := result.TaxAmount.String(); got != "4.00" {
		t.Fatalf("expected tax 4.00, got %s", got)
	}
}
