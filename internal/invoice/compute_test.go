package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"billgen/pkg/models"
)

func item(qty, price string) models.BillItem {
	return models.BillItem{
		Quantity:  models.ParseNumeric(qty),
		UnitPrice: models.ParseNumeric(price),
	}
}

func TestSubtotal(t *testing.T) {
	testCases := []struct {
		name  string
		items []models.BillItem
		want  string
	}{
		{
			name:  "empty",
			items: nil,
			want:  "0.00",
		},
		{
			name:  "two_items",
			items: []models.BillItem{item("2", "500"), item("1", "1500")},
			want:  "2500.00",
		},
		{
			name:  "no_float_drift",
			items: []models.BillItem{item("1", "0.1"), item("1", "0.2")},
			want:  "0.30",
		},
		{
			name:  "many_cents",
			items: []models.BillItem{item("3", "19.99"), item("7", "0.01")},
			want:  "60.04",
		},
		{
			name:  "malformed_items_count_as_zero",
			items: []models.BillItem{item("2", "500"), item("abc", "100"), item("1", ""), item("", "")},
			want:  "1000.00",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(Subtotal(tc.items)))
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, decimal.NewFromInt(1000).Equal(LineTotal(item("2", "500"))))
	assert.True(t, LineTotal(models.BillItem{}).IsZero())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "Rs. 2500.00", FormatMoney("Rs.", decimal.NewFromInt(2500)))
	assert.Equal(t, "12.35", FormatMoney("", decimal.RequireFromString("12.345")))
}

func TestSum(t *testing.T) {
	bills := []models.Bill{
		{Total: decimal.RequireFromString("1000")},
		{Total: decimal.RequireFromString("500.25")},
	}
	assert.Equal(t, "1500.25", Format(Sum(bills)))
	assert.Equal(t, "0.00", Format(Sum(nil)))
}
