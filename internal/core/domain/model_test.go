package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhalloran/allocation-be/internal/core/domain"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func makeBatchAndLine(sku string, batchQty, lineQty int) (*domain.Batch, domain.OrderLine) {
	return domain.NewBatch("batch-001", sku, batchQty, nil),
		domain.NewOrderLine("order-123", sku, lineQty)
}

func TestOrderLine_Validate(t *testing.T) {
	tests := []struct {
		name      string
		line      domain.OrderLine
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid_line",
			line:      domain.NewOrderLine("o1", "SMALL-TABLE", 2),
			wantError: false,
		},
		{
			name:      "missing_orderid",
			line:      domain.NewOrderLine("", "SMALL-TABLE", 2),
			wantError: true,
			errorMsg:  "orderid is required",
		},
		{
			name:      "missing_sku",
			line:      domain.NewOrderLine("o1", "", 2),
			wantError: true,
			errorMsg:  "sku is required",
		},
		{
			name:      "zero_qty",
			line:      domain.NewOrderLine("o1", "SMALL-TABLE", 0),
			wantError: true,
			errorMsg:  "qty must be positive",
		},
		{
			name:      "negative_qty",
			line:      domain.NewOrderLine("o1", "SMALL-TABLE", -3),
			wantError: true,
			errorMsg:  "qty must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOrderLine_ValueEquality(t *testing.T) {
	a := domain.NewOrderLine("o1", "RED-CHAIR", 5)
	b := domain.NewOrderLine("o1", "RED-CHAIR", 5)
	c := domain.NewOrderLine("o1", "RED-CHAIR", 6)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestBatch_Allocate_ReducesAvailableQuantity(t *testing.T) {
	batch, line := makeBatchAndLine("SMALL-TABLE", 20, 2)

	batch.Allocate(line)

	assert.Equal(t, 18, batch.AvailableQuantity())
}

func TestBatch_Allocate_IsIdempotent(t *testing.T) {
	batch, line := makeBatchAndLine("ANGULAR-DESK", 20, 2)

	batch.Allocate(line)
	batch.Allocate(line)

	assert.Equal(t, 18, batch.AvailableQuantity())
	assert.Len(t, batch.Allocations(), 1)
}

func TestBatch_CanAllocate(t *testing.T) {
	tests := []struct {
		name     string
		batchQty int
		lineSKU  string
		lineQty  int
		want     bool
	}{
		{
			name:     "available_greater_than_required",
			batchQty: 20,
			lineSKU:  "ELEGANT-LAMP",
			lineQty:  2,
			want:     true,
		},
		{
			name:     "available_equal_to_required",
			batchQty: 2,
			lineSKU:  "ELEGANT-LAMP",
			lineQty:  2,
			want:     true,
		},
		{
			name:     "available_smaller_than_required",
			batchQty: 1,
			lineSKU:  "ELEGANT-LAMP",
			lineQty:  2,
			want:     false,
		},
		{
			name:     "sku_mismatch",
			batchQty: 100,
			lineSKU:  "EXPENSIVE-TOASTER",
			lineQty:  10,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := domain.NewBatch("batch-001", "ELEGANT-LAMP", tt.batchQty, nil)
			line := domain.NewOrderLine("order-123", tt.lineSKU, tt.lineQty)

			assert.Equal(t, tt.want, batch.CanAllocate(line))
		})
	}
}

func TestBatch_Allocate_SilentNoOpWhenCannotAllocate(t *testing.T) {
	batch, line := makeBatchAndLine("BLUE-CUSHION", 1, 2)

	batch.Allocate(line)

	assert.Equal(t, 1, batch.AvailableQuantity())
	assert.Empty(t, batch.Allocations())
}

func TestBatch_AvailableQuantity_NeverNegative(t *testing.T) {
	batch := domain.NewBatch("batch-001", "BLUE-VASE", 10, nil)

	// Whatever sequence of allocations arrives, the capacity check keeps
	// the derived quantity at or above zero.
	for i, qty := range []int{4, 4, 4, 4, 4} {
		batch.Allocate(domain.NewOrderLine("order-"+string(rune('a'+i)), "BLUE-VASE", qty))
		assert.GreaterOrEqual(t, batch.AvailableQuantity(), 0)
	}

	assert.Equal(t, 2, batch.AvailableQuantity())
}

func TestBatch_Deallocate(t *testing.T) {
	batch, line := makeBatchAndLine("EXPENSIVE-FOOTSTOOL", 20, 2)

	batch.Allocate(line)
	require.Equal(t, 18, batch.AvailableQuantity())

	batch.Deallocate(line)
	assert.Equal(t, 20, batch.AvailableQuantity())
}

func TestBatch_Deallocate_UnallocatedLineIsNoOp(t *testing.T) {
	batch, line := makeBatchAndLine("EXPENSIVE-FOOTSTOOL", 20, 2)

	batch.Deallocate(line)

	assert.Equal(t, 20, batch.AvailableQuantity())
}

func TestSortByPriority(t *testing.T) {
	inStock := domain.NewBatch("in-stock", "RETRO-CLOCK", 100, nil)
	shipping := domain.NewBatch("shipping", "RETRO-CLOCK", 100, date(2025, 2, 1))
	arrivingSoon := domain.NewBatch("arriving-soon", "RETRO-CLOCK", 100, date(2025, 1, 1))

	batches := []*domain.Batch{shipping, inStock, arrivingSoon}
	domain.SortByPriority(batches)

	refs := []string{batches[0].Reference(), batches[1].Reference(), batches[2].Reference()}
	assert.Equal(t, []string{"in-stock", "arriving-soon", "shipping"}, refs)
}

func TestSortByPriority_StableOnTies(t *testing.T) {
	first := domain.NewBatch("first", "RETRO-CLOCK", 100, nil)
	second := domain.NewBatch("second", "RETRO-CLOCK", 100, nil)

	batches := []*domain.Batch{first, second}
	domain.SortByPriority(batches)

	assert.Equal(t, "first", batches[0].Reference())
	assert.Equal(t, "second", batches[1].Reference())
}
