// Package invoice derives bill totals from line items and validates bill drafts
// before they are submitted.
//
// All monetary arithmetic uses shopspring/decimal, so typical currency values
// never pick up binary floating-point drift. Presentation is always fixed to two
// fractional digits.
//
// Computation is permissive: an item whose quantity or unit price is missing or
// non-numeric contributes zero instead of failing the whole bill. Validation is
// strict and happens earlier, on drafts, before anything reaches the backend.
package invoice

import (
	"github.com/shopspring/decimal"

	"billgen/pkg/models"
)

// DisplayPlaces is the number of fractional digits shown for money.
const DisplayPlaces = 2

// LineTotal returns quantity × unit price, or zero when either is unusable.
func LineTotal(item models.BillItem) decimal.Decimal {
	if !item.Quantity.Valid || !item.UnitPrice.Valid {
		return decimal.Zero
	}
	return item.Quantity.Value.Mul(item.UnitPrice.Value)
}

// Subtotal sums the line totals of items. An empty list yields zero.
func Subtotal(items []models.BillItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item))
	}
	return total
}

// Round rounds d to the display precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(DisplayPlaces)
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(DisplayPlaces)
}

// FormatMoney renders d with a currency prefix, e.g. "Rs. 2500.00".
func FormatMoney(prefix string, d decimal.Decimal) string {
	if prefix == "" {
		return Format(d)
	}
	return prefix + " " + Format(d)
}

// Sum adds up the authoritative totals of bills.
func Sum(bills []models.Bill) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.Total)
	}
	return total
}
