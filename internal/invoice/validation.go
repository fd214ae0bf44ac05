package invoice

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billgen/internal/logger"
	"billgen/pkg/models"
)

// TotalValidation cross-checks the total stored on a bill against its items.
type TotalValidation struct {
	log zerolog.Logger
}

// NewTotalValidation creates a new total validation service
func NewTotalValidation() *TotalValidation {
	return &TotalValidation{
		log: logger.WithComponent("total-validation"),
	}
}

// TotalCheck is the outcome of comparing a bill's authoritative total with the
// recomputed sum of its line totals.
type TotalCheck struct {
	Authoritative  decimal.Decimal
	Recomputed     decimal.Decimal
	Difference     decimal.Decimal // Authoritative - Recomputed, at display precision
	HasDiscrepancy bool
	MalformedItems []int // Indexes of items that contributed zero because of bad data
	Warnings       []string
}

// Check compares the totals at display precision. It never fails; callers decide
// what a discrepancy means.
func (tv *TotalValidation) Check(bill models.Bill) *TotalCheck {
	result := &TotalCheck{
		Authoritative: bill.Total,
		Recomputed:    Subtotal(bill.Items),
	}

	for i, item := range bill.Items {
		if !item.Quantity.Valid || !item.UnitPrice.Valid {
			result.MalformedItems = append(result.MalformedItems, i)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("item %d (%s) has a missing or non-numeric quantity/unit price and counts as 0", i+1, item.ServiceName))
		}
	}

	result.Difference = Round(result.Authoritative).Sub(Round(result.Recomputed))
	if !result.Difference.IsZero() {
		result.HasDiscrepancy = true
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("total %s differs from item sum %s (difference: %s)",
				Format(result.Authoritative), Format(result.Recomputed), Format(result.Difference)))

		tv.log.Warn().
			Str("bill_number", bill.BillNumber).
			Str("total", Format(result.Authoritative)).
			Str("recomputed", Format(result.Recomputed)).
			Str("difference", Format(result.Difference)).
			Msg("Bill total discrepancy detected")
	}

	if len(result.MalformedItems) > 0 {
		tv.log.Warn().
			Str("bill_number", bill.BillNumber).
			Ints("items", result.MalformedItems).
			Msg("Bill has malformed items")
	}

	return result
}

// CheckTotal runs a TotalValidation and returns ErrTotalMismatch when the bill's
// total disagrees with its items.
func CheckTotal(bill models.Bill) (*TotalCheck, error) {
	const op = "CheckTotal"

	result := NewTotalValidation().Check(bill)
	if result.HasDiscrepancy {
		return result, &ComputationError{
			Op:         op,
			BillNumber: bill.BillNumber,
			Err:        ErrTotalMismatch,
			Details:    fmt.Sprintf("total %s, items %s", Format(result.Authoritative), Format(result.Recomputed)),
		}
	}
	return result, nil
}
