// cmd/seeder/main.go
//
// Seeds the allocation database with batches and order lines, either from a
// fixture file (.xlsx or .json) or from a built-in sample set. Useful for
// local development and demo environments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"
)

// SeedBatch is one batch row in a fixture file.
type SeedBatch struct {
	Reference string  `json:"reference"`
	SKU       string  `json:"sku"`
	Qty       int     `json:"qty"`
	ETA       *string `json:"eta,omitempty"` // YYYY-MM-DD
}

// SeedOrderLine is one order line in a fixture file. Lines are allocated
// against the batch named by BatchRef.
type SeedOrderLine struct {
	OrderID  string `json:"orderid"`
	SKU      string `json:"sku"`
	Qty      int    `json:"qty"`
	BatchRef string `json:"batchref"`
}

// SeedFixture is the top-level fixture file structure.
type SeedFixture struct {
	Batches    []SeedBatch     `json:"batches"`
	OrderLines []SeedOrderLine `json:"order_lines"`
}

func main() {
	var (
		fixtureFile = flag.String("file", "", "Fixture file (.json or .xlsx) with batches to seed")
		truncate    = flag.Bool("truncate", false, "Truncate allocation tables before seeding")
		dryRun      = flag.Bool("dry-run", false, "Preview changes without modifying database")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Setup logging
	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)

	// Load fixture
	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("fixture loaded",
		slog.Int("batches", len(fixture.Batches)),
		slog.Int("order_lines", len(fixture.OrderLines)))

	if *dryRun {
		for _, b := range fixture.Batches {
			logger.Info("would seed batch",
				slog.String("reference", b.Reference),
				slog.String("sku", b.SKU),
				slog.Int("qty", b.Qty))
		}
		for _, l := range fixture.OrderLines {
			logger.Info("would allocate line",
				slog.String("orderid", l.OrderID),
				slog.String("batchref", l.BatchRef))
		}
		return
	}

	// Database connection
	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "allocation"),
		getEnv("DB_PASSWORD", "allocation_dev_2025"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "allocation"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *truncate {
		logger.Info("truncating allocation tables")
		if _, err := pool.Exec(ctx,
			`TRUNCATE allocation_events, allocations, order_lines, batches RESTART IDENTITY`); err != nil {
			logger.Error("failed to truncate tables", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if err := seed(ctx, pool, fixture, logger); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seeding complete",
		slog.Int("batches", len(fixture.Batches)),
		slog.Int("order_lines", len(fixture.OrderLines)))
}

// seed inserts the fixture in one transaction so a partial run leaves no
// half-seeded state behind.
func seed(ctx context.Context, pool *pgxpool.Pool, fixture *SeedFixture, logger *slog.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, b := range fixture.Batches {
		var eta *time.Time
		if b.ETA != nil {
			parsed, err := time.Parse("2006-01-02", *b.ETA)
			if err != nil {
				return fmt.Errorf("batch %s: invalid eta %q: %w", b.Reference, *b.ETA, err)
			}
			eta = &parsed
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO batches (reference, sku, purchased_qty, eta)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (reference) DO NOTHING`,
			b.Reference, b.SKU, b.Qty, eta,
		); err != nil {
			return fmt.Errorf("failed to insert batch %s: %w", b.Reference, err)
		}

		logger.Debug("batch seeded", slog.String("reference", b.Reference))
	}

	for _, l := range fixture.OrderLines {
		var lineID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO order_lines (orderid, sku, qty)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (orderid, sku, qty) DO UPDATE SET qty = EXCLUDED.qty
			 RETURNING id`,
			l.OrderID, l.SKU, l.Qty,
		).Scan(&lineID)
		if err != nil {
			return fmt.Errorf("failed to insert order line %s: %w", l.OrderID, err)
		}

		var batchID int64
		err = tx.QueryRow(ctx,
			`SELECT id FROM batches WHERE reference = $1`, l.BatchRef,
		).Scan(&batchID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return fmt.Errorf("order line %s references unknown batch %s", l.OrderID, l.BatchRef)
			}
			return fmt.Errorf("failed to look up batch %s: %w", l.BatchRef, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO allocations (orderline_id, batch_id)
			 VALUES ($1, $2)
			 ON CONFLICT (orderline_id) DO NOTHING`,
			lineID, batchID,
		); err != nil {
			return fmt.Errorf("failed to allocate line %s to batch %s: %w", l.OrderID, l.BatchRef, err)
		}

		logger.Debug("order line allocated",
			slog.String("orderid", l.OrderID),
			slog.String("batchref", l.BatchRef))
	}

	return tx.Commit(ctx)
}

// loadFixture reads batches and order lines from the given file, or returns
// the built-in sample set when no file is given.
func loadFixture(path string) (*SeedFixture, error) {
	if path == "" {
		return defaultFixture(), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSONFixture(path)
	case ".xlsx":
		return loadExcelFixture(path)
	default:
		return nil, fmt.Errorf("unsupported fixture format: %s", filepath.Ext(path))
	}
}

func loadJSONFixture(path string) (*SeedFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture SeedFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}

	return &fixture, nil
}

// loadExcelFixture reads batches from the first sheet of an Excel workbook.
// Expected columns: reference, sku, qty, eta (YYYY-MM-DD, blank for in
// stock). The first row is treated as a header.
func loadExcelFixture(path string) (*SeedFixture, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet := wb.Sheets[0]
	fixture := &SeedFixture{}

	err = sheet.ForEachRow(func(row *xlsx.Row) error {
		if row.GetCoordinate() == 0 {
			return nil // header
		}

		reference := strings.TrimSpace(row.GetCell(0).Value)
		sku := strings.TrimSpace(row.GetCell(1).Value)
		if reference == "" || sku == "" {
			return nil
		}

		qty, err := strconv.Atoi(strings.TrimSpace(row.GetCell(2).Value))
		if err != nil {
			return fmt.Errorf("row %d: invalid qty: %w", row.GetCoordinate()+1, err)
		}

		batch := SeedBatch{Reference: reference, SKU: sku, Qty: qty}
		if eta := strings.TrimSpace(row.GetCell(3).Value); eta != "" {
			batch.ETA = &eta
		}

		fixture.Batches = append(fixture.Batches, batch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fixture, nil
}

// defaultFixture is the sample data set used when no fixture file is given.
func defaultFixture() *SeedFixture {
	nextWeek := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	nextMonth := time.Now().AddDate(0, 1, 0).Format("2006-01-02")

	return &SeedFixture{
		Batches: []SeedBatch{
			{Reference: "batch-small-table-01", SKU: "SMALL-TABLE", Qty: 20},
			{Reference: "batch-small-table-02", SKU: "SMALL-TABLE", Qty: 50, ETA: &nextMonth},
			{Reference: "batch-red-lamp-01", SKU: "RED-LAMP", Qty: 100},
			{Reference: "batch-blue-vase-01", SKU: "BLUE-VASE", Qty: 30, ETA: &nextWeek},
			{Reference: "batch-velvet-sofa-01", SKU: "VELVET-SOFA", Qty: 10},
		},
		OrderLines: []SeedOrderLine{
			{OrderID: "order-demo-001", SKU: "SMALL-TABLE", Qty: 2, BatchRef: "batch-small-table-01"},
			{OrderID: "order-demo-002", SKU: "RED-LAMP", Qty: 12, BatchRef: "batch-red-lamp-01"},
			{OrderID: "order-demo-003", SKU: "VELVET-SOFA", Qty: 1, BatchRef: "batch-velvet-sofa-01"},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
