package models

import (
	"github.com/shopspring/decimal"
)

// Customer is billed by one or more bills.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Service is a catalog entry whose price seeds a bill item's default unit price.
type Service struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
}

// CustomerIndex resolves customers by id.
type CustomerIndex map[int64]*Customer

// IndexCustomers builds a CustomerIndex from a list.
func IndexCustomers(customers []Customer) CustomerIndex {
	idx := make(CustomerIndex, len(customers))
	for i := range customers {
		idx[customers[i].ID] = &customers[i]
	}
	return idx
}

// Lookup returns the customer for id, or nil.
func (idx CustomerIndex) Lookup(id int64) *Customer {
	if idx == nil {
		return nil
	}
	return idx[id]
}
