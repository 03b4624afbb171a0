package money

import (
	"errors"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the ledger currency. The ledger is single-currency; statement
// amounts and account balances are all expressed in it.
const Currency = "SGD"

// ErrInvalidAmount is returned when a decimal string cannot be represented
// as an exact count of minor units.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// fraction is the number of minor-unit digits for the ledger currency (2 for SGD).
var fraction = int32(gomoney.GetCurrency(Currency).Fraction)

// Money is a monetary value stored as an integer count of minor units
// (cents). All arithmetic is exact; there is no floating-point representation
// anywhere in the posting pipeline, so debit/credit equality checks can be
// exact comparisons.
type Money struct {
	units int64
}

// FromMinorUnits builds a Money from a raw count of minor units.
func FromMinorUnits(units int64) Money {
	return Money{units: units}
}

// FromDecimal converts a decimal value to Money, rounding to the nearest
// minor unit. It returns ErrInvalidAmount if the value does not fit in the
// minor-unit range.
func FromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(fraction).Round(0)
	big := shifted.BigInt()
	if !big.IsInt64() {
		return Money{}, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d)
	}
	return Money{units: big.Int64()}, nil
}

// Parse converts a decimal string such as "24.31" or "-100.00" to Money.
// It returns ErrInvalidAmount for anything that is not a finite decimal
// number representable in minor units.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse but panics on error. Use only in tests or with literals.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + n.
func (m Money) Add(n Money) Money { return Money{units: m.units + n.units} }

// Negate returns -m.
func (m Money) Negate() Money { return Money{units: -m.units} }

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	if m.units < 0 {
		return Money{units: -m.units}
	}
	return m
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool { return m.units == 0 }

// IsNegative reports whether m is below zero.
func (m Money) IsNegative() bool { return m.units < 0 }

// Equal reports exact equality.
func (m Money) Equal(n Money) bool { return m.units == n.units }

// MinorUnits returns the raw count of minor units.
func (m Money) MinorUnits() int64 { return m.units }

// Decimal returns the value as a decimal in major units, e.g. 2431 -> 24.31.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.units, -fraction)
}

// String returns the plain decimal representation, e.g. "24.31".
func (m Money) String() string {
	return m.Decimal().StringFixed(fraction)
}

// Display returns the value formatted with the currency symbol, e.g. "S$24.31".
func (m Money) Display() string {
	return gomoney.New(m.units, Currency).Display()
}

// MarshalJSON emits the value as a decimal string so clients never see a
// binary float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
