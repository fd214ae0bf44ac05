package report

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billgen/pkg/models"
)

func bill(id int64, date string, total string, paid bool) models.Bill {
	return models.Bill{
		ID:         id,
		BillNumber: fmt.Sprintf("INV-24-%04d", id),
		CustomerID: id,
		Date:       models.MustParseDate(date),
		Total:      decimal.RequireFromString(total),
		IsPaid:     paid,
	}
}

func datePtr(s string) *models.Date {
	d := models.MustParseDate(s)
	return &d
}

func threeBills() []models.Bill {
	return []models.Bill{
		bill(1, "2024-01-01", "1000", true),
		bill(2, "2024-01-15", "500", false),
		bill(3, "2024-02-01", "2000", true),
	}
}

func TestBuildSummaryIgnoresStatusFilter(t *testing.T) {
	for _, status := range []StatusFilter{StatusAll, StatusPaid, StatusUnpaid} {
		t.Run(string(status), func(t *testing.T) {
			filter := Filter{From: datePtr("2024-01-01"), To: datePtr("2024-01-31"), Status: status}
			r := Build(threeBills(), nil, filter, 1, 10)

			assert.Equal(t, 1, r.Paid.Count)
			assert.Equal(t, "1000", r.Paid.Total.String())
			assert.Equal(t, 1, r.Unpaid.Count)
			assert.Equal(t, "500", r.Unpaid.Total.String())
			assert.Equal(t, "1500", r.GrandTotal.String())
		})
	}
}

func TestBuildListingFollowsStatusFilter(t *testing.T) {
	filter := Filter{From: datePtr("2024-01-01"), To: datePtr("2024-01-31")}

	testCases := []struct {
		status    StatusFilter
		wantIDs   []int64
		wantTotal string
	}{
		{StatusAll, []int64{1, 2}, "1500"},
		{StatusPaid, []int64{1}, "1000"},
		{StatusUnpaid, []int64{2}, "500"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			filter.Status = tc.status
			r := Build(threeBills(), nil, filter, 1, 10)

			var ids []int64
			for _, row := range r.Rows {
				ids = append(ids, row.Bill.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.wantTotal, r.FilteredTotal.String())
		})
	}
}

func TestBuildDateBounds(t *testing.T) {
	bills := threeBills()

	testCases := []struct {
		name    string
		filter  Filter
		wantLen int
	}{
		{"unbounded", Filter{}, 3},
		{"from_only_inclusive", Filter{From: datePtr("2024-01-15")}, 2},
		{"to_only_inclusive", Filter{To: datePtr("2024-01-15")}, 2},
		{"single_day", Filter{From: datePtr("2024-02-01"), To: datePtr("2024-02-01")}, 1},
		{"inverted_range", Filter{From: datePtr("2024-03-01"), To: datePtr("2024-01-01")}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := Build(bills, nil, tc.filter, 1, 10)
			assert.Len(t, r.Matching, tc.wantLen)
			assert.Equal(t, tc.wantLen, r.Paid.Count+r.Unpaid.Count)
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, nil, Filter{}, 3, 10)

	assert.True(t, r.Empty())
	assert.Equal(t, 1, r.TotalPages)
	assert.Equal(t, 1, r.Page)
	assert.Empty(t, r.Rows)
	assert.Equal(t, "0", r.GrandTotal.String())
	assert.Equal(t, "0", r.FilteredTotal.String())
}

func TestBuildPagination(t *testing.T) {
	var bills []models.Bill
	for i := 1; i <= 23; i++ {
		bills = append(bills, bill(int64(i), "2024-01-01", "10", i%2 == 0))
	}

	r := Build(bills, nil, Filter{}, 1, 5)
	assert.Equal(t, 5, r.TotalPages)
	assert.Len(t, r.Rows, 5)
	assert.Equal(t, int64(1), r.Rows[0].Bill.ID)

	r = Build(bills, nil, Filter{}, 5, 5)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, int64(21), r.Rows[0].Bill.ID)

	// Out-of-range pages are clamped.
	r = Build(bills, nil, Filter{}, 99, 5)
	assert.Equal(t, 5, r.Page)
	r = Build(bills, nil, Filter{}, -1, 5)
	assert.Equal(t, 1, r.Page)

	// The footer covers every matching bill, not just the page.
	assert.Equal(t, "230", r.FilteredTotal.String())
}

func TestCustomerName(t *testing.T) {
	customers := models.IndexCustomers([]models.Customer{{ID: 2, Name: "Kamal"}})

	assert.Equal(t, "On Bill", CustomerName(models.Bill{CustomerID: 2, CustomerName: "On Bill"}, customers))
	assert.Equal(t, "Kamal", CustomerName(models.Bill{CustomerID: 2}, customers))
	assert.Equal(t, UnknownCustomer, CustomerName(models.Bill{CustomerID: 5}, customers))
	assert.Equal(t, UnknownCustomer, CustomerName(models.Bill{CustomerID: 5}, nil))
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]StatusFilter{"": StatusAll, "ALL": StatusAll, "paid": StatusPaid, " Unpaid ": StatusUnpaid} {
		got, err := ParseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseStatus("overdue")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 1, TotalPages(5, 0))
}
