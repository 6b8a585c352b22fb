// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/jhalloran/allocation-be/internal/adapters/redis_adapter"
	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
)

// ExportMetadata contains metadata about an export
type ExportMetadata struct {
	ExportDate time.Time `json:"export_date"`
	TotalRows  int       `json:"total_rows"`
	SKU        string    `json:"sku,omitempty"`
}

// JSONExportResponse represents the JSON export response structure
type JSONExportResponse struct {
	Batches  []BatchResponse `json:"batches"`
	Metadata ExportMetadata  `json:"metadata"`
}

// ExportHandler handles export operations
type ExportHandler struct {
	service ports.AllocationService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ports.AllocationService, cache ports.CacheRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// ExportExcel handles GET /api/v1/export/batches
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sku := r.URL.Query().Get("sku")

	batches, err := h.service.ListBatches(ctx, sku)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve batches for export", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	excelData, err := h.generateExcelFile(batches)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("batches_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(excelData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(excelData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "Excel export completed",
		slog.Int("total_rows", len(batches)),
		slog.String("filename", filename))
}

// ExportJSON handles GET /api/v1/export/batches.json
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sku := r.URL.Query().Get("sku")

	// Check cache first
	cacheKey := redis_a.BuildKey(redis_a.PrefixExport, "json", h.cacheKeySuffix(sku))
	var cachedData []byte
	if err := h.cache.Get(ctx, cacheKey, &cachedData); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Header().Set("Content-Length", strconv.Itoa(len(cachedData)))

		if _, err := w.Write(cachedData); err != nil {
			h.logger.ErrorContext(ctx, "failed to write cached JSON response", slog.String("error", err.Error()))
		}
		return
	}

	batches, err := h.service.ListBatches(ctx, sku)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to retrieve batches for export", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	response := JSONExportResponse{
		Batches: make([]BatchResponse, 0, len(batches)),
		Metadata: ExportMetadata{
			ExportDate: time.Now(),
			TotalRows:  len(batches),
			SKU:        sku,
		},
	}
	for _, batch := range batches {
		response.Batches = append(response.Batches, toBatchResponse(batch))
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal JSON response", slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate JSON")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("Content-Length", strconv.Itoa(len(responseData)))

	if _, err := w.Write(responseData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write JSON response", slog.String("error", err.Error()))
		return
	}

	// Cache the result (async)
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := h.cache.SetWithTTL(cacheCtx, cacheKey, responseData, 5*time.Minute); err != nil {
			h.logger.WarnContext(cacheCtx, "failed to cache JSON export", slog.String("error", err.Error()))
		}
	}()

	h.logger.InfoContext(ctx, "JSON export completed",
		slog.Int("total_rows", len(batches)))
}

// Helper methods

// generateExcelFile creates an Excel file in memory from the batch aggregates
func (h *ExportHandler) generateExcelFile(batches []*domain.Batch) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Batches")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Reference", "SKU", "ETA", "In Stock",
		"Purchased Qty", "Allocated Qty", "Available Qty", "Order Lines",
	}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, batch := range batches {
		dataRow := sheet.AddRow()
		for _, value := range h.batchToExcelRow(batch) {
			cell := dataRow.AddCell()
			cell.Value = value
		}
	}

	// SetColWidth indexes columns from 1.
	for i := 1; i <= len(headers); i++ {
		sheet.SetColWidth(i, i, 15)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

// batchToExcelRow converts a batch aggregate to Excel row values
func (h *ExportHandler) batchToExcelRow(batch *domain.Batch) []string {
	return []string{
		batch.Reference(),
		batch.SKU(),
		h.safeDateValue(batch.ETA()),
		h.safeBoolValue(batch.InStock()),
		strconv.Itoa(batch.PurchasedQuantity()),
		strconv.Itoa(batch.AllocatedQuantity()),
		strconv.Itoa(batch.AvailableQuantity()),
		strconv.Itoa(len(batch.Allocations())),
	}
}

// Utility methods for safe value conversion

func (h *ExportHandler) safeDateValue(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

func (h *ExportHandler) safeBoolValue(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func (h *ExportHandler) cacheKeySuffix(sku string) string {
	if sku == "" {
		return "all"
	}
	return sku
}

func (h *ExportHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]string{
		"error":   message,
		"status":  "error",
		"message": message,
	}

	json.NewEncoder(w).Encode(response)
}
