package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Two-decimal monetary value
// =============================================================================

// MoneyPlaces is the number of decimal places every Money value is rounded to.
const MoneyPlaces = 2

// Money is a monetary amount. All constructors round to MoneyPlaces, so sums
// and differences of Money values stay exact.
type Money struct {
	Value decimal.Decimal
}

// Parsed amounts must fit these bounds before they are rounded.
const (
	maxIntegerDigits = 15
	minExponent      = -20
)

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value).Round(MoneyPlaces)}
}
func MoneyFromDecimal(d decimal.Decimal) Money { return Money{Value: d.Round(MoneyPlaces)} }

// parseBoundedDecimal parses s, returning ErrInvalidAmount when it is out of bounds.
func parseBoundedDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	exp := d.Exponent()
	if exp > maxIntegerDigits || exp < minExponent || d.NumDigits()+int(exp) > maxIntegerDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: amount out of range", ErrInvalidAmount)
	}
	return d, nil
}

// ParseMoney parses a decimal string such as "400" or "12.345".
func ParseMoney(s string) (Money, error) {
	d, err := parseBoundedDecimal(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", truncate(s, 32), err)
	}
	return MoneyFromDecimal(d), nil
}

// MustParseMoney is ParseMoney for literals. It panics on invalid input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (m Money) Add(o Money) Money               { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money               { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) IsNegative() bool                { return m.Value.IsNegative() }
func (m Money) IsZero() bool                    { return m.Value.IsZero() }
func (m Money) IsPositive() bool                { return m.Value.IsPositive() }
func (m Money) Equal(o Money) bool              { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool        { return m.Value.GreaterThan(o.Value) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.Value.GreaterThanOrEqual(o.Value) }
func (m Money) LessThan(o Money) bool           { return m.Value.LessThan(o.Value) }
func (m Money) LessThanOrEqual(o Money) bool    { return m.Value.LessThanOrEqual(o.Value) }
func (m Money) Float64() float64                { f, _ := m.Value.Float64(); return f }
func (m Money) String() string                  { return m.Value.StringFixed(MoneyPlaces) }

// NonNegative clamps negative values to zero.
func (m Money) NonNegative() Money {
	if m.IsNegative() {
		return Money{Value: decimal.Zero.Round(MoneyPlaces)}
	}
	return m
}

// MarshalJSON writes Money as a bare JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = NewMoney(0)
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	parsed, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
