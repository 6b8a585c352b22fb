// internal/adapters/db/batch_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// querier is the subset of pgx operations shared by *Database and pgx.Tx,
// so the same repository code serves pool-backed and transactional calls.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// batchRepository implements ports.BatchRepository
type batchRepository struct {
	q      querier
	logger *slog.Logger
}

// NewBatchRepository creates a new batch repository backed by the pool.
func NewBatchRepository(database *Database, logger *slog.Logger) ports.BatchRepository {
	return &batchRepository{
		q:      database,
		logger: logger.With(slog.String("repository", "batch")),
	}
}

// WithTx returns a repository scoped to the given transaction.
func (r *batchRepository) WithTx(tx pgx.Tx) ports.BatchRepository {
	return &batchRepository{q: tx, logger: r.logger}
}

// Add inserts a new batch with an empty allocation set.
func (r *batchRepository) Add(ctx context.Context, batch *domain.Batch) error {
	query := `
		INSERT INTO batches (reference, sku, purchased_qty, eta)
		VALUES ($1, $2, $3, $4)`

	_, err := r.q.Exec(ctx, query,
		batch.Reference(), batch.SKU(), batch.PurchasedQuantity(), batch.ETA())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("batch already exists: %s", batch.Reference())
		}
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	r.logger.DebugContext(ctx, "batch inserted",
		slog.String("reference", batch.Reference()),
		slog.String("sku", batch.SKU()))

	return nil
}

// GetByReference loads one batch aggregate with its allocations, or nil if
// no batch carries the reference.
func (r *batchRepository) GetByReference(ctx context.Context, reference string) (*domain.Batch, error) {
	batches, err := r.queryBatches(ctx, squirrel.Eq{"b.reference": reference})
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}
	return batches[0], nil
}

// ListBySKU loads all batch aggregates for one SKU.
func (r *batchRepository) ListBySKU(ctx context.Context, sku string) ([]*domain.Batch, error) {
	return r.queryBatches(ctx, squirrel.Eq{"b.sku": sku})
}

// ListAll loads every batch aggregate.
func (r *batchRepository) ListAll(ctx context.Context) ([]*domain.Batch, error) {
	return r.queryBatches(ctx, nil)
}

// SaveAllocation persists one allocation decision: the order line row is
// upserted and linked to the chosen batch. Both statements are idempotent
// so re-persisting an existing allocation is a no-op, mirroring the
// domain's set semantics.
func (r *batchRepository) SaveAllocation(ctx context.Context, batchRef string, line domain.OrderLine) error {
	var orderlineID int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO order_lines (orderid, sku, qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (orderid, sku, qty) DO UPDATE SET qty = EXCLUDED.qty
		RETURNING id`,
		line.OrderID, line.SKU, line.Qty,
	).Scan(&orderlineID)
	if err != nil {
		return fmt.Errorf("failed to upsert order line: %w", err)
	}

	tag, err := r.q.Exec(ctx, `
		INSERT INTO allocations (orderline_id, batch_id)
		SELECT $1, id FROM batches WHERE reference = $2
		ON CONFLICT (orderline_id) DO NOTHING`,
		orderlineID, batchRef)
	if err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "allocation already persisted",
			slog.String("orderid", line.OrderID),
			slog.String("batchref", batchRef))
	}

	return nil
}

// DeleteAllocation removes the line's allocation row and returns the
// reference of the batch it was assigned to.
func (r *batchRepository) DeleteAllocation(ctx context.Context, line domain.OrderLine) (string, error) {
	var reference string
	err := r.q.QueryRow(ctx, `
		DELETE FROM allocations a
		USING order_lines ol, batches b
		WHERE a.orderline_id = ol.id
		  AND a.batch_id = b.id
		  AND ol.orderid = $1 AND ol.sku = $2 AND ol.qty = $3
		RETURNING b.reference`,
		line.OrderID, line.SKU, line.Qty,
	).Scan(&reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ports.ErrAllocationNotFound
		}
		return "", fmt.Errorf("failed to delete allocation: %w", err)
	}
	return reference, nil
}

// queryBatches loads batch rows with their allocation rows joined in and
// reconstitutes domain aggregates. Rehydration goes through the domain's
// own Allocate so the capacity rules hold in one place only.
func (r *batchRepository) queryBatches(ctx context.Context, where interface{}) ([]*domain.Batch, error) {
	qb := psql.
		Select(
			"b.id", "b.reference", "b.sku", "b.purchased_qty", "b.eta",
			"ol.orderid", "ol.sku", "ol.qty",
		).
		From("batches b").
		LeftJoin("allocations a ON a.batch_id = b.id").
		LeftJoin("order_lines ol ON ol.id = a.orderline_id").
		OrderBy("b.id")

	if where != nil {
		qb = qb.Where(where)
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build batch query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var (
		batches []*domain.Batch
		byID    = make(map[int64]*domain.Batch)
	)

	for rows.Next() {
		var (
			id           int64
			reference    string
			sku          string
			purchasedQty int
			eta          *time.Time
			lineOrderID  *string
			lineSKU      *string
			lineQty      *int
		)

		if err := rows.Scan(&id, &reference, &sku, &purchasedQty, &eta,
			&lineOrderID, &lineSKU, &lineQty); err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}

		batch, ok := byID[id]
		if !ok {
			batch = domain.NewBatch(reference, sku, purchasedQty, eta)
			byID[id] = batch
			batches = append(batches, batch)
		}

		if lineOrderID != nil && lineSKU != nil && lineQty != nil {
			batch.Allocate(domain.NewOrderLine(*lineOrderID, *lineSKU, *lineQty))
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch rows: %w", err)
	}

	return batches, nil
}
