// internal/handlers/batches.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
)

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	service ports.AllocationService
	logger  *slog.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(service ports.AllocationService, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "batches")),
	}
}

// CreateBatch handles POST /api/v1/batches
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var req CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate required fields
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.AddBatch(ctx, req.Reference, req.SKU, req.Qty, req.ETA); err != nil {
		if strings.Contains(err.Error(), "batch already exists") {
			h.respondError(w, http.StatusConflict, fmt.Sprintf("Batch already exists: %s", req.Reference))
			return
		}
		h.logger.ErrorContext(ctx, "failed to create batch",
			slog.String("reference", req.Reference),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to create batch")
		return
	}

	h.logger.InfoContext(ctx, "batch created",
		slog.String("reference", req.Reference),
		slog.String("sku", req.SKU))

	h.respondJSON(w, http.StatusCreated, map[string]string{"reference": req.Reference})
}

// GetBatch handles GET /api/v1/batches/{reference}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := r.PathValue("reference")

	batch, err := h.service.GetBatch(ctx, reference)
	if err != nil {
		if err.Error() == "batch not found: "+reference {
			h.respondError(w, http.StatusNotFound, "Batch not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get batch",
			slog.String("reference", reference),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve batch")
		return
	}

	h.respondJSON(w, http.StatusOK, toBatchResponse(batch))
}

// ListBatches handles GET /api/v1/batches
func (h *BatchHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sku := r.URL.Query().Get("sku")

	batches, err := h.service.ListBatches(ctx, sku)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list batches",
			slog.String("sku", sku),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}

	resp := ListBatchesResponse{Batches: make([]BatchResponse, 0, len(batches))}
	for _, batch := range batches {
		resp.Batches = append(resp.Batches, toBatchResponse(batch))
	}
	resp.Total = len(resp.Batches)

	h.respondJSON(w, http.StatusOK, resp)
}

// StockLevel handles GET /api/v1/stock/{sku}
func (h *BatchHandler) StockLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sku := r.PathValue("sku")

	level, err := h.service.StockLevel(ctx, sku)
	if err != nil {
		var invalidSKU domain.InvalidSKUError
		if errors.As(err, &invalidSKU) {
			h.respondError(w, http.StatusNotFound, invalidSKU.Error())
			return
		}
		h.logger.ErrorContext(ctx, "failed to get stock level",
			slog.String("sku", sku),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve stock level")
		return
	}

	h.respondJSON(w, http.StatusOK, level)
}

// Helper methods

func (h *BatchHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *BatchHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// Request/Response DTOs

// CreateBatchRequest represents the request body for registering a batch
type CreateBatchRequest struct {
	Reference string     `json:"reference"`
	SKU       string     `json:"sku"`
	Qty       int        `json:"qty"`
	ETA       *time.Time `json:"eta,omitempty"`
}

// Validate validates the create batch request
func (r *CreateBatchRequest) Validate() error {
	if r.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	if r.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if r.Qty <= 0 {
		return fmt.Errorf("qty must be positive")
	}
	return nil
}

// BatchResponse represents a batch aggregate in API responses
type BatchResponse struct {
	Reference         string              `json:"reference"`
	SKU               string              `json:"sku"`
	ETA               *time.Time          `json:"eta,omitempty"`
	InStock           bool                `json:"in_stock"`
	PurchasedQuantity int                 `json:"purchased_quantity"`
	AllocatedQuantity int                 `json:"allocated_quantity"`
	AvailableQuantity int                 `json:"available_quantity"`
	Allocations       []OrderLineResponse `json:"allocations"`
}

// OrderLineResponse represents an allocated order line in API responses
type OrderLineResponse struct {
	OrderID string `json:"orderid"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// ListBatchesResponse wraps a batch listing
type ListBatchesResponse struct {
	Batches []BatchResponse `json:"batches"`
	Total   int             `json:"total"`
}

func toBatchResponse(batch *domain.Batch) BatchResponse {
	resp := BatchResponse{
		Reference:         batch.Reference(),
		SKU:               batch.SKU(),
		ETA:               batch.ETA(),
		InStock:           batch.InStock(),
		PurchasedQuantity: batch.PurchasedQuantity(),
		AllocatedQuantity: batch.AllocatedQuantity(),
		AvailableQuantity: batch.AvailableQuantity(),
		Allocations:       make([]OrderLineResponse, 0),
	}
	for _, line := range batch.Allocations() {
		resp.Allocations = append(resp.Allocations, OrderLineResponse{
			OrderID: line.OrderID,
			SKU:     line.SKU,
			Qty:     line.Qty,
		})
	}
	return resp
}
