package utils

import "github.com/shopspring/decimal"

// Money2 rounds d to 2 decimal places, the precision of all currency columns.
func Money2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
