// internal/core/domain/allocate.go
package domain

import (
	"slices"
	"time"
)

// etaOrEarliest maps an absent ETA to the minimum date bound so the
// tie-break rule stays explicit: ship from stock before anything in transit.
func etaOrEarliest(b *Batch) time.Time {
	if b.eta == nil {
		return time.Time{}
	}
	return *b.eta
}

// ComparePriority defines the total order used to pick a fulfilling batch.
// In-stock batches sort before any dated batch, and between two dated
// batches the earlier arrival sorts first. Ties compare equal; callers that
// care about tie order must use a stable sort.
func ComparePriority(a, b *Batch) int {
	return etaOrEarliest(a).Compare(etaOrEarliest(b))
}

// SortByPriority stable-sorts batches into allocation preference order.
// Ties keep their input order.
func SortByPriority(batches []*Batch) {
	slices.SortStableFunc(batches, ComparePriority)
}

// Allocate selects exactly one batch to fulfill the line, mutates its
// allocation set, and returns its reference.
//
// The candidate set may include batches of unrelated SKUs; the algorithm
// self-filters. If no candidate carries the line's SKU at all it fails with
// InvalidSKUError; if candidates exist but none has capacity it fails with
// OutOfStockError. A line is atomically assigned to exactly one batch or to
// none, and a line already held by some batch keeps that assignment. The
// caller is responsible for persisting the mutation.
func Allocate(line OrderLine, batches []*Batch) (string, error) {
	if !isValidSKU(line.SKU, batches) {
		return "", InvalidSKUError{SKU: line.SKU}
	}

	// A line already allocated stays with its batch, even when that batch has
	// since filled up and first-fit would now prefer another one. Moving it
	// would desync the reported reference from the persisted link.
	for _, batch := range batches {
		if batch.HasAllocation(line) {
			return batch.Reference(), nil
		}
	}

	candidates := make([]*Batch, len(batches))
	copy(candidates, batches)
	SortByPriority(candidates)

	for _, batch := range candidates {
		if batch.CanAllocate(line) {
			batch.Allocate(line)
			return batch.Reference(), nil
		}
	}

	return "", OutOfStockError{SKU: line.SKU}
}

// isValidSKU reports whether any candidate batch supplies the given SKU.
// "Unknown SKU" is distinct from "known but exhausted".
func isValidSKU(sku string, batches []*Batch) bool {
	for _, batch := range batches {
		if batch.SKU() == sku {
			return true
		}
	}
	return false
}
