// internal/core/ports/allocation_service.go
package ports

import (
	"context"
	"time"

	"github.com/jhalloran/allocation-be/internal/core/domain"
)

// AllocationService defines the application service port for order-line
// allocation. This interface is implemented by the application service and
// consumed by the transport layer.
type AllocationService interface {
	Allocate(ctx context.Context, line domain.OrderLine) (string, error)
	Deallocate(ctx context.Context, line domain.OrderLine) (string, error)
	AddBatch(ctx context.Context, reference, sku string, qty int, eta *time.Time) error
	GetBatch(ctx context.Context, reference string) (*domain.Batch, error)
	ListBatches(ctx context.Context, sku string) ([]*domain.Batch, error)
	StockLevel(ctx context.Context, sku string) (*StockLevel, error)
}

// BatchStock describes one batch's contribution to a SKU's stock position.
type BatchStock struct {
	Reference         string     `json:"reference"`
	ETA               *time.Time `json:"eta,omitempty"`
	PurchasedQuantity int        `json:"purchased_quantity"`
	AllocatedQuantity int        `json:"allocated_quantity"`
	AvailableQuantity int        `json:"available_quantity"`
}

// StockLevel summarizes availability for one SKU across all its batches.
type StockLevel struct {
	SKU            string       `json:"sku"`
	Batches        []BatchStock `json:"batches"`
	TotalPurchased int          `json:"total_purchased"`
	TotalAllocated int          `json:"total_allocated"`
	TotalAvailable int          `json:"total_available"`
}
