// Package report aggregates bills into paid/unpaid summaries and a paginated,
// filtered listing.
//
// Filtering happens in two stages. The date range is applied to the whole
// collection first, and the paid, unpaid and grand totals are computed over
// that date-filtered set. The status filter is applied afterwards and only
// narrows the listing, so switching between all, paid and unpaid never moves
// the summary cards.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billgen/pkg/models"
)

// EmptyMessage is shown when the listing has no rows.
const EmptyMessage = "No invoices found for the selected filters"

// UnknownCustomer is shown for bills whose customer cannot be resolved.
const UnknownCustomer = "Unknown"

// DefaultPageSize is the initial number of rows per page.
const DefaultPageSize = 10

// PageSizes lists the supported page sizes.
var PageSizes = []int{5, 10, 20, 50}

var (
	// ErrUnknownStatus is returned for a status filter other than all, paid or unpaid.
	ErrUnknownStatus = errors.New("unknown status filter")

	// ErrPageSize is returned for a page size not in PageSizes.
	ErrPageSize = errors.New("unsupported page size")
)

// StatusFilter narrows the listing by payment status.
type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusPaid   StatusFilter = "paid"
	StatusUnpaid StatusFilter = "unpaid"
)

// ParseStatus accepts all, paid or unpaid in any case. Empty means all.
func ParseStatus(s string) (StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPaid:
		return StatusPaid, nil
	case StatusUnpaid:
		return StatusUnpaid, nil
	default:
		return "", fmt.Errorf("%w: %q (want all, paid or unpaid)", ErrUnknownStatus, s)
	}
}

// Matches reports whether a bill passes the status filter.
func (s StatusFilter) Matches(b models.Bill) bool {
	switch s {
	case StatusPaid:
		return b.IsPaid
	case StatusUnpaid:
		return !b.IsPaid
	default:
		return true
	}
}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, size := range PageSizes {
		if size == n {
			return true
		}
	}
	return false
}

// Filter selects bills for a report. From and To are inclusive calendar-day
// bounds; nil leaves that side open.
type Filter struct {
	From   *models.Date
	To     *models.Date
	Status StatusFilter
}

// InRange reports whether the bill date falls within the date bounds.
func (f Filter) InRange(b models.Bill) bool {
	if f.From != nil && b.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && b.Date.After(*f.To) {
		return false
	}
	return true
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return f.From == nil && f.To == nil && (f.Status == "" || f.Status == StatusAll)
}

// Summary is one of the summary cards.
type Summary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (s *Summary) add(b models.Bill) {
	s.Count++
	s.Total = s.Total.Add(b.Total)
}

// Row is one listed bill with its resolved customer name.
type Row struct {
	Bill         models.Bill `json:"bill"`
	CustomerName string      `json:"customer_name"`
}

// Report is the computed report screen.
type Report struct {
	Filter     Filter          `json:"-"`
	Paid       Summary         `json:"paid"`
	Unpaid     Summary         `json:"unpaid"`
	GrandTotal decimal.Decimal `json:"grand_total"`

	// Matching is the whole listing after both filters.
	Matching      []Row           `json:"-"`
	FilteredTotal decimal.Decimal `json:"filtered_total"`

	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	Rows       []Row `json:"rows"`
}

// Empty reports whether no bill matched the filters.
func (r Report) Empty() bool {
	return len(r.Matching) == 0
}

// Build computes the report for one page. A non-positive pageSize falls back
// to DefaultPageSize and page is clamped to [1, TotalPages].
func Build(bills []models.Bill, customers models.CustomerIndex, filter Filter, page, pageSize int) Report {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	r := Report{
		Filter:        filter,
		GrandTotal:    decimal.Zero,
		FilteredTotal: decimal.Zero,
		Paid:          Summary{Total: decimal.Zero},
		Unpaid:        Summary{Total: decimal.Zero},
		PageSize:      pageSize,
		Matching:      []Row{},
	}

	for _, b := range bills {
		if !filter.InRange(b) {
			continue
		}
		if b.IsPaid {
			r.Paid.add(b)
		} else {
			r.Unpaid.add(b)
		}
		if filter.Status.Matches(b) {
			r.Matching = append(r.Matching, Row{Bill: b, CustomerName: CustomerName(b, customers)})
			r.FilteredTotal = r.FilteredTotal.Add(b.Total)
		}
	}
	r.GrandTotal = r.Paid.Total.Add(r.Unpaid.Total)

	r.TotalPages = TotalPages(len(r.Matching), pageSize)
	r.Page = clamp(page, 1, r.TotalPages)

	start := (r.Page - 1) * pageSize
	end := start + pageSize
	if end > len(r.Matching) {
		end = len(r.Matching)
	}
	r.Rows = r.Matching[start:end]
	return r
}

// TotalPages is max(1, ceil(n/pageSize)).
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// CustomerName prefers the name carried on the bill, then the customer
// lookup, then UnknownCustomer.
func CustomerName(b models.Bill, customers models.CustomerIndex) string {
	if name := strings.TrimSpace(b.CustomerName); name != "" {
		return name
	}
	if c := customers.Lookup(b.CustomerID); c != nil && strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return UnknownCustomer
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
