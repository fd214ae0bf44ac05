// Package preview runs invoice previews: PDF generation happens off the
// caller's path, every session shows at most one document, and a result that
// arrives after the session moved on is thrown away.
package preview

//go:generate mockgen -source=preview.go -destination=mocks/mock_preview.go -package=mocks

import (
	"context"

	"billgen/pkg/models"
)

// Renderer produces the document bytes for a bill. Implementations must be
// safe for concurrent use.
type Renderer interface {
	Render(bill models.Bill) ([]byte, error)
}

// BillSource loads a bill ready for display, customer fields filled.
type BillSource interface {
	EnrichedBill(ctx context.Context, id int64) (*models.Bill, error)
}
