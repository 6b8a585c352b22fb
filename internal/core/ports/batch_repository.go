// internal/core/ports/batch_repository.go
package ports

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhalloran/allocation-be/internal/core/domain"
)

// ErrAllocationNotFound is returned when an order line has no current
// allocation to remove.
var ErrAllocationNotFound = errors.New("allocation not found")

// BatchRepository defines the persistence port for batches and their
// allocation sets. This interface is implemented by the database adapter.
//
// Batches are reconstituted as full aggregates: every read returns batches
// with their current allocations loaded, so the domain's derived
// AvailableQuantity is correct without further queries.
type BatchRepository interface {
	Add(ctx context.Context, batch *domain.Batch) error
	GetByReference(ctx context.Context, reference string) (*domain.Batch, error)
	ListBySKU(ctx context.Context, sku string) ([]*domain.Batch, error)
	ListAll(ctx context.Context) ([]*domain.Batch, error)
	SaveAllocation(ctx context.Context, batchRef string, line domain.OrderLine) error
	// DeleteAllocation removes the line's allocation and returns the
	// reference of the batch it was assigned to.
	DeleteAllocation(ctx context.Context, line domain.OrderLine) (string, error)
	// WithTx returns a repository scoped to the given transaction, so a
	// read-decide-persist sequence shares one isolation boundary.
	WithTx(tx pgx.Tx) BatchRepository
}
