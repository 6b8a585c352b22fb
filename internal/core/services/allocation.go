// internal/core/services/allocation.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
	"github.com/jhalloran/allocation-be/internal/workers"
)

// pgSerializationFailure is the SQLSTATE reported when two serializable
// transactions conflict. Conflicting allocations are retried, not surfaced.
const pgSerializationFailure = "40001"

// allocateMaxAttempts bounds serialization-failure retries per call.
const allocateMaxAttempts = 3

// stockCacheTTL bounds staleness of the per-SKU stock summary cache.
const stockCacheTTL = 5 * time.Minute

// TaskEnqueuer is the slice of asynq.Client the service needs. Kept as an
// interface so tests can capture enqueued tasks.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AllocationService handles order-line allocation business logic. The batch
// selection itself lives in the domain package; the service wraps it in the
// transaction discipline the domain expects: candidates are read and the
// resulting mutation persisted inside a single serializable transaction, so
// two concurrent allocations cannot both observe stale availability and both
// succeed.
type AllocationService struct {
	repo   ports.BatchRepository
	db     ports.Database
	cache  ports.CacheRepository
	tasks  TaskEnqueuer
	logger *slog.Logger
}

// Statically assert that *AllocationService implements the AllocationService interface.
var _ ports.AllocationService = (*AllocationService)(nil)

// NewAllocationService creates a new allocation service. cache and tasks may
// be nil; the service then skips stock caching and task notification.
func NewAllocationService(
	repo ports.BatchRepository,
	db ports.Database,
	cache ports.CacheRepository,
	tasks TaskEnqueuer,
	logger *slog.Logger,
) *AllocationService {
	return &AllocationService{
		repo:   repo,
		db:     db,
		cache:  cache,
		tasks:  tasks,
		logger: logger.With(slog.String("service", "allocation")),
	}
}

// Allocate assigns the order line to the highest-priority batch with
// capacity and returns that batch's reference. Business rejections
// (domain.InvalidSKUError, domain.OutOfStockError) propagate unchanged.
func (s *AllocationService) Allocate(ctx context.Context, line domain.OrderLine) (string, error) {
	var batchRef string

	err := s.serializableRetry(ctx, func(tx pgx.Tx) error {
		txRepo := s.repo.WithTx(tx)

		batches, err := txRepo.ListBySKU(ctx, line.SKU)
		if err != nil {
			return fmt.Errorf("failed to load candidate batches: %w", err)
		}

		ref, err := domain.Allocate(line, batches)
		if err != nil {
			return err
		}

		if err := txRepo.SaveAllocation(ctx, ref, line); err != nil {
			return fmt.Errorf("failed to persist allocation: %w", err)
		}

		batchRef = ref
		return nil
	})
	if err != nil {
		return "", err
	}

	s.invalidateStock(ctx, line.SKU)
	s.notify(ctx, workers.EventAllocated, batchRef, line)

	s.logger.InfoContext(ctx, "order line allocated",
		slog.String("orderid", line.OrderID),
		slog.String("sku", line.SKU),
		slog.Int("qty", line.Qty),
		slog.String("batchref", batchRef))

	return batchRef, nil
}

// Deallocate removes the order line's allocation and returns the reference
// of the batch it was assigned to. Returns ErrAllocationNotFound when the
// line is not currently allocated.
func (s *AllocationService) Deallocate(ctx context.Context, line domain.OrderLine) (string, error) {
	var batchRef string

	err := s.serializableRetry(ctx, func(tx pgx.Tx) error {
		ref, err := s.repo.WithTx(tx).DeleteAllocation(ctx, line)
		if err != nil {
			return err
		}
		batchRef = ref
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrAllocationNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to remove allocation: %w", err)
	}

	s.invalidateStock(ctx, line.SKU)
	s.notify(ctx, workers.EventDeallocated, batchRef, line)

	s.logger.InfoContext(ctx, "order line deallocated",
		slog.String("orderid", line.OrderID),
		slog.String("sku", line.SKU),
		slog.String("batchref", batchRef))

	return batchRef, nil
}

// AddBatch registers a new shipment with an empty allocation set.
func (s *AllocationService) AddBatch(ctx context.Context, reference, sku string, qty int, eta *time.Time) error {
	if reference == "" {
		return fmt.Errorf("reference is required")
	}
	if sku == "" {
		return fmt.Errorf("sku is required")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive")
	}

	batch := domain.NewBatch(reference, sku, qty, eta)
	if err := s.repo.Add(ctx, batch); err != nil {
		return fmt.Errorf("failed to add batch: %w", err)
	}

	s.invalidateStock(ctx, sku)

	s.logger.InfoContext(ctx, "batch added",
		slog.String("reference", reference),
		slog.String("sku", sku),
		slog.Int("qty", qty))

	return nil
}

// GetBatch retrieves a batch aggregate by reference.
func (s *AllocationService) GetBatch(ctx context.Context, reference string) (*domain.Batch, error) {
	batch, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, fmt.Errorf("batch not found: %s", reference)
	}
	return batch, nil
}

// ListBatches lists batch aggregates, optionally filtered by SKU.
func (s *AllocationService) ListBatches(ctx context.Context, sku string) ([]*domain.Batch, error) {
	var (
		batches []*domain.Batch
		err     error
	)
	if sku == "" {
		batches, err = s.repo.ListAll(ctx)
	} else {
		batches, err = s.repo.ListBySKU(ctx, sku)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// StockLevel summarizes availability for one SKU, served from cache when
// possible. An unknown SKU fails with domain.InvalidSKUError.
func (s *AllocationService) StockLevel(ctx context.Context, sku string) (*ports.StockLevel, error) {
	fetch := func() (interface{}, error) {
		return s.buildStockLevel(ctx, sku)
	}

	level := &ports.StockLevel{}
	if s.cache == nil {
		built, err := s.buildStockLevel(ctx, sku)
		if err != nil {
			return nil, err
		}
		return built, nil
	}

	if err := s.cache.GetOrSet(ctx, stockCacheKey(sku), level, fetch, stockCacheTTL); err != nil {
		return nil, err
	}
	return level, nil
}

func (s *AllocationService) buildStockLevel(ctx context.Context, sku string) (*ports.StockLevel, error) {
	batches, err := s.repo.ListBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to load batches: %w", err)
	}
	if len(batches) == 0 {
		return nil, domain.InvalidSKUError{SKU: sku}
	}

	domain.SortByPriority(batches)

	level := &ports.StockLevel{SKU: sku}
	for _, b := range batches {
		stock := ports.BatchStock{
			Reference:         b.Reference(),
			ETA:               b.ETA(),
			PurchasedQuantity: b.PurchasedQuantity(),
			AllocatedQuantity: b.AllocatedQuantity(),
			AvailableQuantity: b.AvailableQuantity(),
		}
		level.Batches = append(level.Batches, stock)
		level.TotalPurchased += stock.PurchasedQuantity
		level.TotalAllocated += stock.AllocatedQuantity
		level.TotalAvailable += stock.AvailableQuantity
	}
	return level, nil
}

// serializableRetry runs fn in a serializable transaction, retrying a
// bounded number of times when the database reports a serialization
// conflict between concurrent allocation attempts.
func (s *AllocationService) serializableRetry(ctx context.Context, fn func(pgx.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.Serializable}

	var err error
	for attempt := 1; attempt <= allocateMaxAttempts; attempt++ {
		err = s.db.TransactionWithOptions(ctx, opts, fn)
		if !isSerializationFailure(err) {
			return err
		}

		s.logger.WarnContext(ctx, "serialization conflict, retrying",
			slog.Int("attempt", attempt))
	}
	return fmt.Errorf("allocation transaction failed after %d attempts: %w", allocateMaxAttempts, err)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}

func (s *AllocationService) invalidateStock(ctx context.Context, sku string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, stockCacheKey(sku)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate stock cache",
			slog.String("sku", sku),
			slog.String("error", err.Error()))
	}
}

func (s *AllocationService) notify(ctx context.Context, event, batchRef string, line domain.OrderLine) {
	if s.tasks == nil {
		return
	}

	payload := workers.AllocationEventPayload{
		Event:     event,
		BatchRef:  batchRef,
		OrderID:   line.OrderID,
		SKU:       line.SKU,
		Qty:       line.Qty,
		Timestamp: time.Now().UTC(),
	}

	b, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal allocation event",
			slog.String("error", err.Error()))
		return
	}

	task := asynq.NewTask(workers.TypeAllocationRecorded, b)
	if _, err := s.tasks.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(3)); err != nil {
		// The allocation itself is committed; a lost event only delays the
		// audit trail and cache warm-up.
		s.logger.WarnContext(ctx, "failed to enqueue allocation event",
			slog.String("error", err.Error()))
	}
}

func stockCacheKey(sku string) string {
	return "stock:" + sku
}
