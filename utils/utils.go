package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRand renders an amount the way the kiosk shows money, e.g. R350.00.
func FormatRand(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-R" + amount.Neg().StringFixed(2)
	}
	return "R" + amount.StringFixed(2)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
