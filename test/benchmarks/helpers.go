// test/benchmarks/helpers.go
package benchmarks

import (
	"fmt"
	"time"

	"github.com/jhalloran/allocation-be/internal/core/domain"
)

// makeBatchFleet builds n batches for one SKU: every third batch is in
// stock, the rest are shipments with staggered ETAs. This mirrors the shape
// of a real stock position, where in-stock batches compete with a tail of
// incoming shipments.
func makeBatchFleet(sku string, n int) []*domain.Batch {
	batches := make([]*domain.Batch, 0, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		var eta *time.Time
		if i%3 != 0 {
			t := base.AddDate(0, 0, i)
			eta = &t
		}
		batches = append(batches, domain.NewBatch(
			fmt.Sprintf("batch-%04d", i), sku, 100, eta,
		))
	}

	return batches
}

// drainLines builds k distinct order lines of quantity 1 for the SKU.
func drainLines(sku string, k int) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, k)
	for i := 0; i < k; i++ {
		lines = append(lines, domain.NewOrderLine(fmt.Sprintf("order-%05d", i), sku, 1))
	}
	return lines
}
