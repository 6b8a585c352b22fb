// internal/handlers/allocate.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
)

// AllocationHandler handles allocation-related HTTP requests
type AllocationHandler struct {
	service ports.AllocationService
	logger  *slog.Logger
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(service ports.AllocationService, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "allocation")),
	}
}

// Allocate handles POST /api/v1/allocate
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var req OrderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate required fields
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	line := req.ToDomain()

	batchRef, err := h.service.Allocate(ctx, line)
	if err != nil {
		// Business rejections are client errors, not server faults
		var outOfStock domain.OutOfStockError
		var invalidSKU domain.InvalidSKUError
		switch {
		case errors.As(err, &outOfStock):
			h.respondError(w, http.StatusBadRequest, outOfStock.Error())
		case errors.As(err, &invalidSKU):
			h.respondError(w, http.StatusBadRequest, invalidSKU.Error())
		default:
			h.logger.ErrorContext(ctx, "failed to allocate order line",
				slog.String("orderid", req.OrderID),
				slog.String("sku", req.SKU),
				slog.String("error", err.Error()))
			h.respondError(w, http.StatusInternalServerError, "Failed to allocate order line")
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]string{"batchref": batchRef})
}

// Deallocate handles POST /api/v1/deallocate
func (h *AllocationHandler) Deallocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse request body
	var req OrderLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Validate required fields
	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	batchRef, err := h.service.Deallocate(ctx, req.ToDomain())
	if err != nil {
		if errors.Is(err, ports.ErrAllocationNotFound) {
			h.respondError(w, http.StatusNotFound, "Order line is not allocated")
			return
		}
		h.logger.ErrorContext(ctx, "failed to deallocate order line",
			slog.String("orderid", req.OrderID),
			slog.String("sku", req.SKU),
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to deallocate order line")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"batchref": batchRef})
}

// Helper methods

func (h *AllocationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h *AllocationHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// Request/Response DTOs

// OrderLineRequest represents an order line in allocate and deallocate requests
type OrderLineRequest struct {
	OrderID string `json:"orderid"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// Validate validates the order line request
func (r *OrderLineRequest) Validate() error {
	if r.OrderID == "" {
		return fmt.Errorf("orderid is required")
	}
	if r.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if r.Qty <= 0 {
		return fmt.Errorf("qty must be positive")
	}
	return nil
}

// ToDomain converts the request to a domain order line
func (r *OrderLineRequest) ToDomain() domain.OrderLine {
	return domain.NewOrderLine(r.OrderID, r.SKU, r.Qty)
}
