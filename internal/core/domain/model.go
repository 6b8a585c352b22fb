// internal/core/domain/model.go
package domain

import (
	"fmt"
	"time"
)

// OrderLine is a customer's request for a quantity of one SKU under one
// order id. It is a value object: two lines are equal iff all three fields
// match, and it is comparable so it can key the allocation set directly.
type OrderLine struct {
	OrderID string `json:"orderid"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

// NewOrderLine constructs an order line.
func NewOrderLine(orderID, sku string, qty int) OrderLine {
	return OrderLine{OrderID: orderID, SKU: sku, Qty: qty}
}

// Validate performs domain validation on the order line.
func (l OrderLine) Validate() error {
	if l.OrderID == "" {
		return fmt.Errorf("orderid is required")
	}
	if l.SKU == "" {
		return fmt.Errorf("sku is required")
	}
	if l.Qty <= 0 {
		return fmt.Errorf("qty must be positive")
	}
	return nil
}

// Batch is a shipment of a single SKU with a fixed purchased quantity and an
// optional arrival date. Identity is the reference alone: a reference names
// one real-world shipment, so equality never looks at the mutable allocation
// set. A nil ETA means the batch is already in physical stock.
type Batch struct {
	reference         string
	sku               string
	purchasedQuantity int
	eta               *time.Time
	allocations       orderLineSet
}

// NewBatch constructs a batch with an empty allocation set. eta may be nil
// for batches already in stock.
func NewBatch(reference, sku string, purchasedQuantity int, eta *time.Time) *Batch {
	return &Batch{
		reference:         reference,
		sku:               sku,
		purchasedQuantity: purchasedQuantity,
		eta:               eta,
		allocations:       newOrderLineSet(),
	}
}

// Reference returns the unique shipment identifier.
func (b *Batch) Reference() string { return b.reference }

// SKU returns the stock unit this batch supplies.
func (b *Batch) SKU() string { return b.sku }

// PurchasedQuantity returns the total units originally in the batch.
func (b *Batch) PurchasedQuantity() int { return b.purchasedQuantity }

// ETA returns the expected arrival date, or nil if the batch is in stock.
func (b *Batch) ETA() *time.Time { return b.eta }

// InStock reports whether the batch is already in physical stock.
func (b *Batch) InStock() bool { return b.eta == nil }

// AllocatedQuantity returns the sum of quantities over current allocations.
func (b *Batch) AllocatedQuantity() int {
	total := 0
	for line := range b.allocations {
		total += line.Qty
	}
	return total
}

// AvailableQuantity is always derived, never stored.
func (b *Batch) AvailableQuantity() int {
	return b.purchasedQuantity - b.AllocatedQuantity()
}

// CanAllocate reports whether the batch can accommodate the line: matching
// SKU and enough available quantity. Pure predicate, no side effects.
func (b *Batch) CanAllocate(line OrderLine) bool {
	return b.sku == line.SKU && b.AvailableQuantity() >= line.Qty
}

// Allocate assigns the line to this batch. When CanAllocate is false this is
// a silent no-op: a single batch is only one candidate among many, and only
// the Allocate algorithm knows whether no candidate exists at all. Inserting
// a line already present is also a no-op, which keeps repeated allocation of
// the same line idempotent.
func (b *Batch) Allocate(line OrderLine) {
	if b.CanAllocate(line) {
		b.allocations.add(line)
	}
}

// Deallocate removes the line from this batch if present; no-op otherwise.
func (b *Batch) Deallocate(line OrderLine) {
	b.allocations.remove(line)
}

// HasAllocation reports whether the line is currently assigned to this batch.
func (b *Batch) HasAllocation(line OrderLine) bool {
	return b.allocations.contains(line)
}

// Allocations returns the order lines currently assigned to this batch.
// The returned slice is a copy; iteration order is unspecified.
func (b *Batch) Allocations() []OrderLine {
	return b.allocations.members()
}

// orderLineSet tracks allocation membership with set semantics. OrderLine is
// comparable, so the value itself is the key; no manual deduplication.
type orderLineSet map[OrderLine]struct{}

func newOrderLineSet() orderLineSet { return make(orderLineSet) }

func (s orderLineSet) add(line OrderLine)           { s[line] = struct{}{} }
func (s orderLineSet) remove(line OrderLine)        { delete(s, line) }
func (s orderLineSet) contains(line OrderLine) bool { _, ok := s[line]; return ok }

func (s orderLineSet) members() []OrderLine {
	lines := make([]OrderLine, 0, len(s))
	for line := range s {
		lines = append(lines, line)
	}
	return lines
}
