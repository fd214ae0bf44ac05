package api

import (
	"context"
	"fmt"
	"net/http"

	"billgen/internal/invoice"
	"billgen/pkg/models"
)

const customersPath = "/customers"

// ListCustomers returns all active customers.
func (c *Client) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	out, _, err := call[[]models.Customer](ctx, c, "ListCustomers", http.MethodGet, customersPath, nil)
	return out, err
}

// GetCustomer returns one customer.
func (c *Client) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	out, _, err := call[*models.Customer](ctx, c, "GetCustomer", http.MethodGet, idPath(customersPath, id), nil)
	return out, err
}

// CreateCustomer validates and submits a new customer.
func (c *Client) CreateCustomer(ctx context.Context, in invoice.CustomerInput) (*models.Customer, error) {
	const op = "CreateCustomer"

	if err := invoice.ValidateCustomer(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, _, err := call[*models.Customer](ctx, c, op, http.MethodPost, customersPath, in)
	return out, err
}

// UpdateCustomer validates and replaces a customer's fields.
func (c *Client) UpdateCustomer(ctx context.Context, id int64, in invoice.CustomerInput) (*models.Customer, error) {
	const op = "UpdateCustomer"

	if err := invoice.ValidateCustomer(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, _, err := call[*models.Customer](ctx, c, op, http.MethodPut, idPath(customersPath, id), in)
	return out, err
}

// DeleteCustomer removes a customer. Bills keep their copied customer fields.
func (c *Client) DeleteCustomer(ctx context.Context, id int64) (string, error) {
	_, msg, err := call[struct{}](ctx, c, "DeleteCustomer", http.MethodDelete, idPath(customersPath, id), nil)
	return msg, err
}
