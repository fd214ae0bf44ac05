package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"billgen/internal/invoice"
	"billgen/pkg/models"
)

const billsPath = "/bills"

type billItemRequest struct {
	ServiceID int64       `json:"service_id"`
	Quantity  int64       `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

type billRequest struct {
	CustomerID int64             `json:"customer_id"`
	Date       string            `json:"date,omitempty"`
	Items      []billItemRequest `json:"items"`
	IsPaid     bool              `json:"is_paid"`
}

func newBillRequest(d invoice.Draft) billRequest {
	req := billRequest{
		CustomerID: d.CustomerID,
		Date:       d.Date.String(),
		Items:      make([]billItemRequest, 0, len(d.Items)),
		IsPaid:     d.IsPaid,
	}
	for _, item := range d.Items {
		req.Items = append(req.Items, billItemRequest{
			ServiceID: item.ServiceID,
			Quantity:  item.Quantity,
			UnitPrice: json.Number(item.UnitPrice.String()),
		})
	}
	return req
}

// ListBills returns all active bills.
func (c *Client) ListBills(ctx context.Context) ([]models.Bill, error) {
	out, _, err := call[[]models.Bill](ctx, c, "ListBills", http.MethodGet, billsPath, nil)
	return out, err
}

// GetBill returns one bill with its items.
func (c *Client) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	out, _, err := call[*models.Bill](ctx, c, "GetBill", http.MethodGet, idPath(billsPath, id), nil)
	return out, err
}

// CreateBill validates the draft and submits it. An invalid draft never
// reaches the network.
func (c *Client) CreateBill(ctx context.Context, d invoice.Draft) (*models.Bill, error) {
	const op = "CreateBill"

	if err := invoice.ValidateDraft(d); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, msg, err := call[*models.Bill](ctx, c, op, http.MethodPost, billsPath, newBillRequest(d))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &TransportError{Op: op, URL: c.baseURL + billsPath, Err: errEmptyData}
	}
	c.log.Info().Str("bill_number", out.BillNumber).Str("message", msg).Msg("Bill created")
	return out, nil
}

// UpdateBill validates the draft and replaces the bill's customer, date and
// items.
func (c *Client) UpdateBill(ctx context.Context, id int64, d invoice.Draft) (*models.Bill, error) {
	const op = "UpdateBill"

	if err := invoice.ValidateDraft(d); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, _, err := call[*models.Bill](ctx, c, op, http.MethodPut, idPath(billsPath, id), newBillRequest(d))
	return out, err
}

// TogglePaid flips the paid flag and returns the updated bill.
func (c *Client) TogglePaid(ctx context.Context, id int64) (*models.Bill, error) {
	const op = "TogglePaid"

	path := idPath(billsPath, id) + "/toggle-paid"
	out, msg, err := call[*models.Bill](ctx, c, op, http.MethodPatch, path, nil)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &TransportError{Op: op, URL: c.baseURL + path, Err: errEmptyData}
	}
	c.log.Info().Int64("bill_id", id).Str("message", msg).Msg("Bill paid status toggled")
	return out, nil
}

// DeleteBill removes a bill.
func (c *Client) DeleteBill(ctx context.Context, id int64) (string, error) {
	_, msg, err := call[struct{}](ctx, c, "DeleteBill", http.MethodDelete, idPath(billsPath, id), nil)
	return msg, err
}
