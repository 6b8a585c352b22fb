// internal/workers/allocation_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhalloran/allocation-be/internal/core/ports"
)

// Task type names registered on the worker mux.
const (
	TypeAllocationRecorded = "allocation:recorded"
	TypeCleanupEvents      = "cleanup:events"
)

// Allocation event kinds.
const (
	EventAllocated   = "allocated"
	EventDeallocated = "deallocated"
)

// AllocationEventPayload is the payload for allocation-recorded tasks.
type AllocationEventPayload struct {
	Event     string    `json:"event"`
	BatchRef  string    `json:"batchref"`
	OrderID   string    `json:"orderid"`
	SKU       string    `json:"sku"`
	Qty       int       `json:"qty"`
	Timestamp time.Time `json:"timestamp"`
}

// AllocationProcessor records allocation events in the audit trail and
// re-warms the per-SKU stock cache after the cache was invalidated by the
// service.
type AllocationProcessor struct {
	service ports.AllocationService
	db      ports.Database
	logger  *slog.Logger
}

// NewAllocationProcessor creates a new allocation event processor
func NewAllocationProcessor(service ports.AllocationService, db ports.Database, logger *slog.Logger) *AllocationProcessor {
	return &AllocationProcessor{
		service: service,
		db:      db,
		logger:  logger.With(slog.String("processor", "allocation")),
	}
}

// HandleAllocationRecorded processes one allocation event task.
func (p *AllocationProcessor) HandleAllocationRecorded(ctx context.Context, t *asynq.Task) error {
	var payload AllocationEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing allocation event",
		slog.String("event", payload.Event),
		slog.String("batchref", payload.BatchRef),
		slog.String("orderid", payload.OrderID),
		slog.String("sku", payload.SKU))

	query := `
		INSERT INTO allocation_events (event, batch_reference, orderid, sku, qty, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := p.db.Exec(ctx, query,
		payload.Event, payload.BatchRef, payload.OrderID,
		payload.SKU, payload.Qty, payload.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to record allocation event: %w", err)
	}

	// Warm the stock summary back into cache. Failure here is not worth a
	// retry of the whole task; the next read repopulates it.
	if _, err := p.service.StockLevel(ctx, payload.SKU); err != nil {
		p.logger.WarnContext(ctx, "failed to warm stock cache",
			slog.String("sku", payload.SKU),
			slog.String("error", err.Error()))
	}

	return nil
}

// CleanupEventsPayload is the payload for audit-trail pruning tasks.
type CleanupEventsPayload struct {
	RetentionDays int `json:"retention_days"`
}

// HandleCleanupEvents prunes allocation events older than the retention
// window.
func (p *AllocationProcessor) HandleCleanupEvents(ctx context.Context, t *asynq.Task) error {
	payload := CleanupEventsPayload{RetentionDays: 90}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	cutoff := time.Now().AddDate(0, 0, -payload.RetentionDays)

	tag, err := p.db.Exec(ctx,
		`DELETE FROM allocation_events WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune allocation events: %w", err)
	}

	p.logger.InfoContext(ctx, "allocation events pruned",
		slog.Int64("deleted", tag.RowsAffected()),
		slog.Time("cutoff", cutoff))

	return nil
}
