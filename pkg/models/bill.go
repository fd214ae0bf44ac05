package models

import (
	"github.com/shopspring/decimal"
)

// Bill is an invoice issued to one customer. Items are owned by the bill and have
// no identity outside it.
type Bill struct {
	// Core identifiers
	ID         int64  `json:"id"`
	BillNumber string `json:"bill_number"` // Assigned by the backend, opaque here
	CustomerID int64  `json:"customer_id"`

	// Denormalized customer fields, kept for display stability
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`

	Items  []BillItem      `json:"items"`
	Total  decimal.Decimal `json:"total"` // Authoritative amount supplied by the backend
	Date   Date            `json:"date"`
	IsPaid bool            `json:"is_paid"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// BillItem is one service line on a bill.
type BillItem struct {
	ID          int64   `json:"id,omitempty"`
	ServiceID   int64   `json:"service_id"`
	ServiceName string  `json:"service_name,omitempty"` // Copied so the bill survives catalog edits
	Quantity    Numeric `json:"quantity"`
	UnitPrice   Numeric `json:"unit_price"`
	LineTotal   Numeric `json:"line_total"` // Informational; never trusted for totals
}

// WithCustomer fills the denormalized customer fields that the backend left empty.
// Fields already present on the bill take precedence over the lookup.
func (b Bill) WithCustomer(c *Customer) Bill {
	if c == nil {
		return b
	}
	if b.CustomerName == "" {
		b.CustomerName = c.Name
	}
	if b.CustomerEmail == "" {
		b.CustomerEmail = c.Email
	}
	if b.CustomerPhone == "" {
		b.CustomerPhone = c.Phone
	}
	if b.CustomerAddress == "" {
		b.CustomerAddress = c.Address
	}
	return b
}

// Status returns "Paid" or "Unpaid".
func (b Bill) Status() string {
	if b.IsPaid {
		return "Paid"
	}
	return "Unpaid"
}
