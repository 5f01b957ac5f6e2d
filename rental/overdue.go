/*
overdue.go - Overdue fee calculation

FORMULA:
  daysLate = ceil(asOf - paymentDueDate) in days
  fee      = round_half_up(rentalFee * (1 + R/365 * daysLate)),  R = 0.20

  The result includes the principal: 1,000,000 ten days late is 1,005,479.
  Nothing is owed on or before the due date.

  Calculator.LegacyDueDateCharge reproduces the older behavior of charging
  the full rental fee when evaluated on the due date itself.

The calculator never persists anything. OverdueRecord.AccumulatedOverdueFee
is a cached display value refreshed by reconciliation and overdue actions.
*/
package rental

import "github.com/shopspring/decimal"

// DefaultAnnualOverdueRate is the nominal yearly rate applied to late rent.
var DefaultAnnualOverdueRate = decimal.RequireFromString("0.20")

var daysPerYear = decimal.NewFromInt(365)

type Calculator struct {
	AnnualRate          decimal.Decimal
	LegacyDueDateCharge bool
}

func DefaultCalculator() Calculator {
	return Calculator{AnnualRate: DefaultAnnualOverdueRate}
}

// Fee returns the overdue amount owed on c as of asOf.
func (calc Calculator) Fee(c Contract, asOf Date) Money {
	if c.PaymentDueDate.IsZero() {
		return Money{}
	}
	if !asOf.After(c.PaymentDueDate) {
		if calc.LegacyDueDateCharge && asOf.Equal(c.PaymentDueDate) {
			return calc.AccruedAmount(c.RentalFee, 0)
		}
		return Money{}
	}
	return calc.AccruedAmount(c.RentalFee, c.PaymentDueDate.DaysUntil(asOf))
}

// AccruedAmount applies the daily rate to principal for daysLate days and
// rounds half up to a whole won. Zero days yields the principal.
func (calc Calculator) AccruedAmount(principal Money, daysLate int) Money {
	rate := calc.AnnualRate
	if rate.IsZero() {
		rate = DefaultAnnualOverdueRate
	}
	factor := decimal.NewFromInt(1).Add(
		rate.Mul(decimal.NewFromInt(int64(daysLate))).Div(daysPerYear),
	)
	// Round is half away from zero, which is half up for non-negative amounts.
	return Money{Value: principal.Value.Mul(factor).Round(0)}
}

// DaysLate returns how many days past due c is on asOf, or 0.
func DaysLate(c Contract, asOf Date) int {
	if c.PaymentDueDate.IsZero() || !asOf.After(c.PaymentDueDate) {
		return 0
	}
	return c.PaymentDueDate.DaysUntil(asOf)
}

// OverdueFee evaluates with the default calculator.
func OverdueFee(c Contract, asOf Date) Money {
	return DefaultCalculator().Fee(c, asOf)
}
