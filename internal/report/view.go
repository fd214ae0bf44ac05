package report

import (
	"fmt"

	"billgen/pkg/models"
)

// View holds the interactive state of the report screen. Any change to the
// filters or the page size returns to the first page.
type View struct {
	filter     Filter
	page       int
	pageSize   int
	totalPages int
}

// NewView starts on page 1 with no filters and the default page size.
func NewView() *View {
	return &View{
		filter:     Filter{Status: StatusAll},
		page:       1,
		pageSize:   DefaultPageSize,
		totalPages: 1,
	}
}

func (v *View) Filter() Filter { return v.filter }
func (v *View) Page() int      { return v.page }
func (v *View) PageSize() int  { return v.pageSize }

// SetFilter replaces both the date range and the status.
func (v *View) SetFilter(f Filter) {
	if f.Status == "" {
		f.Status = StatusAll
	}
	v.filter = f
	v.page = 1
}

// SetRange changes the date bounds.
func (v *View) SetRange(from, to *models.Date) {
	v.filter.From = from
	v.filter.To = to
	v.page = 1
}

// SetStatus changes the status filter.
func (v *View) SetStatus(s StatusFilter) {
	v.filter.Status = s
	v.page = 1
}

// SetPageSize accepts only sizes listed in PageSizes.
func (v *View) SetPageSize(n int) error {
	if !ValidPageSize(n) {
		return fmt.Errorf("%w: %d (want one of %v)", ErrPageSize, n, PageSizes)
	}
	v.pageSize = n
	v.page = 1
	return nil
}

// Clear drops the date range and resets the status to all.
func (v *View) Clear() {
	v.filter = Filter{Status: StatusAll}
	v.page = 1
}

// SetPage moves to page n, clamped to the pages of the last report.
func (v *View) SetPage(n int) {
	v.page = clamp(n, 1, v.totalPages)
}

// Next moves forward one page unless already on the last one.
func (v *View) Next() {
	v.SetPage(v.page + 1)
}

// Prev moves back one page unless already on the first one.
func (v *View) Prev() {
	v.SetPage(v.page - 1)
}

// Report builds the report for the current state and remembers its page
// count for later navigation.
func (v *View) Report(bills []models.Bill, customers models.CustomerIndex) Report {
	r := Build(bills, customers, v.filter, v.page, v.pageSize)
	v.totalPages = r.TotalPages
	v.page = r.Page
	return r
}
