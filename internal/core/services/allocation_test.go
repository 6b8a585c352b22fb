// internal/core/services/allocation_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
	"github.com/jhalloran/allocation-be/internal/core/services"
	"github.com/jhalloran/allocation-be/test/helpers"
	"github.com/jhalloran/allocation-be/test/mocks"
)

// expectSerializableTx makes the database mock run the transaction body
// directly, standing in for a committed serializable transaction.
func expectSerializableTx(db *mocks.MockDatabase) *gomock.Call {
	return db.EXPECT().
		TransactionWithOptions(gomock.Any(), pgx.TxOptions{IsoLevel: pgx.Serializable}, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ pgx.TxOptions, fn func(pgx.Tx) error) error {
			return fn(nil)
		})
}

func TestAllocationService_Allocate(t *testing.T) {
	line := domain.NewOrderLine("order-001", "RED-LAMP", 10)

	tests := []struct {
		name          string
		setupMocks    func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository)
		expectedRef   string
		expectedError error
	}{
		{
			name: "allocates_to_available_batch",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
					domain.NewBatch("batch-001", "RED-LAMP", 100, nil),
				}, nil)
				repo.EXPECT().SaveAllocation(gomock.Any(), "batch-001", line).Return(nil)
			},
			expectedRef: "batch-001",
		},
		{
			name: "prefers_in_stock_batch_over_shipment",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
					domain.NewBatch("shipment-batch", "RED-LAMP", 100, helpers.Eta(2026, 9, 15)),
					domain.NewBatch("in-stock-batch", "RED-LAMP", 100, nil),
				}, nil)
				repo.EXPECT().SaveAllocation(gomock.Any(), "in-stock-batch", line).Return(nil)
			},
			expectedRef: "in-stock-batch",
		},
		{
			name: "duplicate_request_returns_holding_batch",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				holding := domain.NewBatch("holding-batch", "RED-LAMP", 10, nil)
				holding.Allocate(line)
				spare := domain.NewBatch("spare-batch", "RED-LAMP", 100, nil)

				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				// The holding batch is now full, so a plain first-fit scan
				// would pick the spare batch and desync from the stored link.
				repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
					holding, spare,
				}, nil)
				repo.EXPECT().SaveAllocation(gomock.Any(), "holding-batch", line).Return(nil)
			},
			expectedRef: "holding-batch",
		},
		{
			name: "returns_out_of_stock_when_no_capacity",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
					domain.NewBatch("batch-001", "RED-LAMP", 5, nil),
				}, nil)
			},
			expectedError: domain.OutOfStockError{SKU: "RED-LAMP"},
		},
		{
			name: "returns_invalid_sku_when_no_batches_exist",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return(nil, nil)
			},
			expectedError: domain.InvalidSKUError{SKU: "RED-LAMP"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			db := mocks.NewMockDatabase(ctrl)
			repo := mocks.NewMockBatchRepository(ctrl)
			tt.setupMocks(db, repo)

			svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

			ref, err := svc.Allocate(context.Background(), line)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRef, ref)
		})
	}
}

func TestAllocationService_Allocate_RetriesSerializationConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	line := domain.NewOrderLine("order-001", "RED-LAMP", 10)
	conflict := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	gomock.InOrder(
		db.EXPECT().
			TransactionWithOptions(gomock.Any(), txOpts, gomock.Any()).
			Return(conflict),
		db.EXPECT().
			TransactionWithOptions(gomock.Any(), txOpts, gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ pgx.TxOptions, fn func(pgx.Tx) error) error {
				return fn(nil)
			}),
	)
	repo.EXPECT().WithTx(gomock.Any()).Return(repo)
	repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
		domain.NewBatch("batch-001", "RED-LAMP", 100, nil),
	}, nil)
	repo.EXPECT().SaveAllocation(gomock.Any(), "batch-001", line).Return(nil)

	svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

	ref, err := svc.Allocate(context.Background(), line)
	require.NoError(t, err)
	assert.Equal(t, "batch-001", ref)
}

func TestAllocationService_Allocate_FailsAfterRepeatedConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	line := domain.NewOrderLine("order-001", "RED-LAMP", 10)
	conflict := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)

	db.EXPECT().
		TransactionWithOptions(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(conflict).
		Times(3)

	svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

	_, err := svc.Allocate(context.Background(), line)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
}

func TestAllocationService_Allocate_InvalidatesStockCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	line := domain.NewOrderLine("order-001", "RED-LAMP", 10)

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	expectSerializableTx(db)
	repo.EXPECT().WithTx(gomock.Any()).Return(repo)
	repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
		domain.NewBatch("batch-001", "RED-LAMP", 100, nil),
	}, nil)
	repo.EXPECT().SaveAllocation(gomock.Any(), "batch-001", line).Return(nil)
	cache.EXPECT().Delete(gomock.Any(), "stock:RED-LAMP").Return(nil)

	svc := services.NewAllocationService(repo, db, cache, nil, helpers.TestLogger())

	_, err := svc.Allocate(context.Background(), line)
	require.NoError(t, err)
}

func TestAllocationService_Deallocate(t *testing.T) {
	line := domain.NewOrderLine("order-001", "RED-LAMP", 10)

	tests := []struct {
		name          string
		setupMocks    func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository)
		expectedRef   string
		expectedError error
	}{
		{
			name: "removes_existing_allocation",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				repo.EXPECT().DeleteAllocation(gomock.Any(), line).Return("batch-001", nil)
			},
			expectedRef: "batch-001",
		},
		{
			name: "returns_not_found_when_line_is_unallocated",
			setupMocks: func(db *mocks.MockDatabase, repo *mocks.MockBatchRepository) {
				expectSerializableTx(db)
				repo.EXPECT().WithTx(gomock.Any()).Return(repo)
				repo.EXPECT().DeleteAllocation(gomock.Any(), line).Return("", ports.ErrAllocationNotFound)
			},
			expectedError: ports.ErrAllocationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			db := mocks.NewMockDatabase(ctrl)
			repo := mocks.NewMockBatchRepository(ctrl)
			tt.setupMocks(db, repo)

			svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

			ref, err := svc.Deallocate(context.Background(), line)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRef, ref)
		})
	}
}

func TestAllocationService_AddBatch(t *testing.T) {
	tests := []struct {
		name          string
		reference     string
		sku           string
		qty           int
		eta           *time.Time
		setupMocks    func(repo *mocks.MockBatchRepository)
		expectedError bool
		errorContains string
	}{
		{
			name:      "adds_in_stock_batch",
			reference: "batch-001",
			sku:       "RED-LAMP",
			qty:       100,
			setupMocks: func(repo *mocks.MockBatchRepository) {
				repo.EXPECT().
					Add(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, batch *domain.Batch) error {
						assert.Equal(t, "batch-001", batch.Reference())
						assert.Equal(t, "RED-LAMP", batch.SKU())
						assert.Equal(t, 100, batch.PurchasedQuantity())
						assert.True(t, batch.InStock())
						return nil
					})
			},
		},
		{
			name:      "adds_shipment_batch_with_eta",
			reference: "batch-002",
			sku:       "RED-LAMP",
			qty:       50,
			eta:       helpers.Eta(2026, 9, 15),
			setupMocks: func(repo *mocks.MockBatchRepository) {
				repo.EXPECT().
					Add(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, batch *domain.Batch) error {
						require.NotNil(t, batch.ETA())
						assert.False(t, batch.InStock())
						return nil
					})
			},
		},
		{
			name:          "rejects_missing_reference",
			sku:           "RED-LAMP",
			qty:           100,
			setupMocks:    func(repo *mocks.MockBatchRepository) {},
			expectedError: true,
			errorContains: "reference is required",
		},
		{
			name:          "rejects_missing_sku",
			reference:     "batch-001",
			qty:           100,
			setupMocks:    func(repo *mocks.MockBatchRepository) {},
			expectedError: true,
			errorContains: "sku is required",
		},
		{
			name:          "rejects_non_positive_quantity",
			reference:     "batch-001",
			sku:           "RED-LAMP",
			qty:           0,
			setupMocks:    func(repo *mocks.MockBatchRepository) {},
			expectedError: true,
			errorContains: "qty must be positive",
		},
		{
			name:      "propagates_repository_error",
			reference: "batch-001",
			sku:       "RED-LAMP",
			qty:       100,
			setupMocks: func(repo *mocks.MockBatchRepository) {
				repo.EXPECT().
					Add(gomock.Any(), gomock.Any()).
					Return(errors.New("connection refused"))
			},
			expectedError: true,
			errorContains: "failed to add batch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			db := mocks.NewMockDatabase(ctrl)
			repo := mocks.NewMockBatchRepository(ctrl)
			tt.setupMocks(repo)

			svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

			err := svc.AddBatch(context.Background(), tt.reference, tt.sku, tt.qty, tt.eta)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAllocationService_GetBatch(t *testing.T) {
	tests := []struct {
		name          string
		reference     string
		setupMocks    func(repo *mocks.MockBatchRepository)
		expectedError bool
		errorContains string
	}{
		{
			name:      "returns_batch_by_reference",
			reference: "batch-001",
			setupMocks: func(repo *mocks.MockBatchRepository) {
				repo.EXPECT().
					GetByReference(gomock.Any(), "batch-001").
					Return(domain.NewBatch("batch-001", "RED-LAMP", 100, nil), nil)
			},
		},
		{
			name:      "returns_error_for_unknown_reference",
			reference: "missing",
			setupMocks: func(repo *mocks.MockBatchRepository) {
				repo.EXPECT().
					GetByReference(gomock.Any(), "missing").
					Return(nil, nil)
			},
			expectedError: true,
			errorContains: "batch not found: missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			db := mocks.NewMockDatabase(ctrl)
			repo := mocks.NewMockBatchRepository(ctrl)
			tt.setupMocks(repo)

			svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

			batch, err := svc.GetBatch(context.Background(), tt.reference)

			if tt.expectedError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Nil(t, batch)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, batch)
			assert.Equal(t, tt.reference, batch.Reference())
		})
	}
}

func TestAllocationService_ListBatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)

	all := []*domain.Batch{
		domain.NewBatch("batch-001", "RED-LAMP", 100, nil),
		domain.NewBatch("batch-002", "BLUE-VASE", 50, nil),
	}
	repo.EXPECT().ListAll(gomock.Any()).Return(all, nil)
	repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return(all[:1], nil)

	svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

	batches, err := svc.ListBatches(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, batches, 2)

	batches, err = svc.ListBatches(context.Background(), "RED-LAMP")
	require.NoError(t, err)
	assert.Len(t, batches, 1)
	assert.Equal(t, "batch-001", batches[0].Reference())
}

func TestAllocationService_StockLevel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)

	inStock := domain.NewBatch("in-stock", "RED-LAMP", 100, nil)
	inStock.Allocate(domain.NewOrderLine("order-001", "RED-LAMP", 30))
	shipment := domain.NewBatch("shipment", "RED-LAMP", 50, helpers.Eta(2026, 9, 15))

	// Returned deliberately out of priority order
	repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{shipment, inStock}, nil)

	svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

	level, err := svc.StockLevel(context.Background(), "RED-LAMP")
	require.NoError(t, err)

	assert.Equal(t, "RED-LAMP", level.SKU)
	require.Len(t, level.Batches, 2)
	assert.Equal(t, "in-stock", level.Batches[0].Reference)
	assert.Equal(t, "shipment", level.Batches[1].Reference)
	assert.Equal(t, 150, level.TotalPurchased)
	assert.Equal(t, 30, level.TotalAllocated)
	assert.Equal(t, 120, level.TotalAvailable)
}

func TestAllocationService_StockLevel_UnknownSKU(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)

	repo.EXPECT().ListBySKU(gomock.Any(), "NOSUCH-SKU").Return(nil, nil)

	svc := services.NewAllocationService(repo, db, nil, nil, helpers.TestLogger())

	_, err := svc.StockLevel(context.Background(), "NOSUCH-SKU")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.InvalidSKUError{SKU: "NOSUCH-SKU"})
}

func TestAllocationService_StockLevel_ServedThroughCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := mocks.NewMockDatabase(ctrl)
	repo := mocks.NewMockBatchRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	repo.EXPECT().ListBySKU(gomock.Any(), "RED-LAMP").Return([]*domain.Batch{
		domain.NewBatch("batch-001", "RED-LAMP", 100, nil),
	}, nil)

	cache.EXPECT().
		GetOrSet(gomock.Any(), "stock:RED-LAMP", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, dest interface{},
			fetch func() (interface{}, error), _ time.Duration) error {
			value, err := fetch()
			if err != nil {
				return err
			}
			*dest.(*ports.StockLevel) = *value.(*ports.StockLevel)
			return nil
		})

	svc := services.NewAllocationService(repo, db, cache, nil, helpers.TestLogger())

	level, err := svc.StockLevel(context.Background(), "RED-LAMP")
	require.NoError(t, err)
	assert.Equal(t, 100, level.TotalAvailable)
}
