package rental

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Integer KRW amounts backed by decimal.Decimal
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func Won(n int64) Money { return Money{Value: decimal.NewFromInt(n)} }

// ParseMoney accepts plain or comma-grouped integers ("1,000,000").
func ParseMoney(field, s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &ValidationError{Field: field, Value: s, Reason: "not a number"}
	}
	if v.IsNegative() {
		return Money{}, &ValidationError{Field: field, Value: s, Reason: "must not be negative"}
	}
	if !v.Equal(v.Truncate(0)) {
		return Money{}, &ValidationError{Field: field, Value: s, Reason: "must be a whole amount"}
	}
	return Money{Value: v}, nil
}

func (m Money) Add(o Money) Money { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money { return Money{Value: m.Value.Sub(o.Value)} }

func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) Int64() int64             { return m.Value.IntPart() }
func (m Money) String() string           { return m.Value.String() }

// MarshalJSON encodes as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Value.String()), nil
}

// UnmarshalJSON accepts a number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney("amount", string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// OrZero dereferences optional amounts.
func OrZero(m *Money) Money {
	if m == nil {
		return Money{}
	}
	return *m
}
