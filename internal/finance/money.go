package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest monetary value the schema stores: numeric(20,2).
var MaxAmount = decimal.RequireFromString("999999999999999999.99")

// ValidAmount reports whether d is a positive amount with at most two decimal
// places that fits the stored numeric range.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2)) && d.LessThanOrEqual(MaxAmount)
}

// ValidBalance is ValidAmount relaxed to allow zero, for initial balances and
// credit limits.
func ValidBalance(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(2)) && d.LessThanOrEqual(MaxAmount)
}

// MonthRange returns the half-open UTC interval [start, end) covering the
// calendar month. end doubles as the month-end boundary for historical
// balance reconstruction: a transaction is "on or before" the last day of the
// month exactly when its date is strictly before end.
func MonthRange(month time.Month, year int) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
