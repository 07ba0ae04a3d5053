package money

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-point monetary value carrying two fractional digits.
// It serializes as a string ("91.79") in JSON and as numeric(12,2) in SQL so
// values never round-trip through binary floats.
type Amount struct {
	d decimal.Decimal
}

const places = 2

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// FromDecimal builds an Amount, rounding to two fractional digits.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.Round(places)}
}

// FromString parses a decimal string such as "19.99".
func FromString(value string) (Amount, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Amount{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return FromDecimal(d), nil
}

// MustParse parses a decimal string and panics on failure. Test helper.
func MustParse(value string) Amount {
	a, err := FromString(value)
	if err != nil {
		panic(err)
	}
	return a
}

// FromCents builds an Amount from an integer cent count.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.NewFromInt(cents).Shift(-places)}
}

// FromInt builds a whole-unit Amount.
func FromInt(units int64) Amount {
	return Amount{d: decimal.NewFromInt(units)}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// MulInt multiplies by a unitless quantity.
func (a Amount) MulInt(qty int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(qty)))}
}

// Percent returns a×pct/100 rounded to two fractional digits.
func (a Amount) Percent(pct decimal.Decimal) Amount {
	return FromDecimal(a.d.Mul(pct).Div(decimal.NewFromInt(100)))
}

// MulRate returns a×rate rounded to two fractional digits. rate is a
// fraction, e.g. 0.0725 for 7.25% tax.
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return FromDecimal(a.d.Mul(rate))
}

// ScaleBy returns a×num/den rounded to two fractional digits. A zero
// denominator returns a unchanged; callers guard the semantics.
func (a Amount) ScaleBy(num, den Amount) Amount {
	if den.d.IsZero() {
		return a
	}
	return FromDecimal(a.d.Mul(num.d).Div(den.d))
}

// Min returns the smaller of the two amounts.
func Min(a, b Amount) Amount {
	if a.d.Cmp(b.d) <= 0 {
		return a
	}
	return b
}

func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Cmp(b.d) == 0
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders with exactly two fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(places)
}

// MarshalJSON renders the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts quoted or bare decimal literals.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		*a = Amount{}
		return nil
	}
	parsed, err := FromString(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for numeric columns.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for numeric columns.
func (a *Amount) Scan(value any) error {
	if value == nil {
		*a = Amount{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		parsed, err := FromString(string(v))
		if err != nil {
			return err
		}
		*a = parsed
	case string:
		parsed, err := FromString(v)
		if err != nil {
			return err
		}
		*a = parsed
	case int64:
		*a = FromInt(v)
	case float64:
		*a = FromDecimal(decimal.NewFromFloat(v))
	default:
		return fmt.Errorf("unsupported amount source %T", value)
	}
	return nil
}
