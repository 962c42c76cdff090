package kernel

import (
	"dispatch/internal/pkg/errs"

	"github.com/govalues/decimal"
)

// moneyScale is the number of decimal places every monetary amount carries.
const moneyScale = 2

// Money is an immutable monetary amount with exactly two decimal places.
// Amounts are backed by a fixed-point decimal so that identical inputs
// always produce bit-identical results.
type Money struct {
	amount decimal.Decimal
}

// NewMoneyFromFloat creates a Money value from a float, rounding half-to-even
// to two decimal places. Negative amounts are rejected.
func NewMoneyFromFloat(value float64) (Money, error) {
	d, err := decimal.NewFromFloat64(value)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money amount", err)
	}
	if d.Cmp(decimal.Zero) < 0 {
		return Money{}, errs.NewValueIsInvalidError("money amount must not be negative")
	}

	return Money{amount: d.Round(moneyScale)}, nil
}

// ParseMoney restores a Money value from its decimal string representation.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money amount", err)
	}

	return Money{amount: d.Round(moneyScale)}, nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) (Money, error) {
	sum, err := m.amount.Add(other.amount)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money amount", err)
	}
	return Money{amount: sum.Round(moneyScale)}, nil
}

// MulFloat returns the amount multiplied by a factor, rounded to two decimals.
func (m Money) MulFloat(factor float64) (Money, error) {
	f, err := decimal.NewFromFloat64(factor)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money factor", err)
	}

	product, err := m.amount.Mul(f)
	if err != nil {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money amount", err)
	}
	return Money{amount: product.Round(moneyScale)}, nil
}

// IsEqual reports whether two amounts are numerically equal.
func (m Money) IsEqual(other Money) bool {
	return m.amount.Cmp(other.amount) == 0
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.Cmp(decimal.Zero) == 0
}

// Float64 returns the amount as a float for read models and notifications.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// String returns the canonical decimal string, e.g. "23.00".
func (m Money) String() string {
	return m.amount.Round(moneyScale).Pad(moneyScale).String()
}
