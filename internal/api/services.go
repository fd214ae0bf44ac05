package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"billgen/internal/invoice"
	"billgen/pkg/models"
)

const servicesPath = "/services"

type serviceRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
}

func newServiceRequest(in invoice.ServiceInput) serviceRequest {
	return serviceRequest{
		Name:        in.Name,
		Description: in.Description,
		Price:       json.Number(in.Price.String()),
	}
}

// ListServices returns the service catalog.
func (c *Client) ListServices(ctx context.Context) ([]models.Service, error) {
	out, _, err := call[[]models.Service](ctx, c, "ListServices", http.MethodGet, servicesPath, nil)
	return out, err
}

// GetService returns one catalog entry.
func (c *Client) GetService(ctx context.Context, id int64) (*models.Service, error) {
	out, _, err := call[*models.Service](ctx, c, "GetService", http.MethodGet, idPath(servicesPath, id), nil)
	return out, err
}

// CreateService validates and submits a catalog entry.
func (c *Client) CreateService(ctx context.Context, in invoice.ServiceInput) (*models.Service, error) {
	const op = "CreateService"

	if err := invoice.ValidateService(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, _, err := call[*models.Service](ctx, c, op, http.MethodPost, servicesPath, newServiceRequest(in))
	return out, err
}

// UpdateService validates and replaces a catalog entry.
func (c *Client) UpdateService(ctx context.Context, id int64, in invoice.ServiceInput) (*models.Service, error) {
	const op = "UpdateService"

	if err := invoice.ValidateService(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, _, err := call[*models.Service](ctx, c, op, http.MethodPut, idPath(servicesPath, id), newServiceRequest(in))
	return out, err
}

// DeleteService removes a catalog entry. Existing bill items keep their prices.
func (c *Client) DeleteService(ctx context.Context, id int64) (string, error) {
	_, msg, err := call[struct{}](ctx, c, "DeleteService", http.MethodDelete, idPath(servicesPath, id), nil)
	return msg, err
}
