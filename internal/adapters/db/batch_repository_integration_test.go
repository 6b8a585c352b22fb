//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/jhalloran/allocation-be/internal/adapters/db"
	"github.com/jhalloran/allocation-be/internal/core/domain"
	"github.com/jhalloran/allocation-be/internal/core/ports"
	"github.com/jhalloran/allocation-be/test/helpers"
)

type BatchRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.BatchRepository
	ctx    context.Context
}

func (s *BatchRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewBatchRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *BatchRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *BatchRepositorySuite) TestAdd() {
	batch := helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)

	err := s.repo.Add(s.ctx, batch)
	s.NoError(err)

	saved, err := s.repo.GetByReference(s.ctx, "batch-001")
	s.NoError(err)
	s.Require().NotNil(saved)
	s.Equal("batch-001", saved.Reference())
	s.Equal("SMALL-TABLE", saved.SKU())
	s.Equal(20, saved.PurchasedQuantity())
	s.True(saved.InStock())
	s.Empty(saved.Allocations())
}

func (s *BatchRepositorySuite) TestAdd_PreservesETA() {
	eta := helpers.Eta(2026, 9, 15)
	batch := helpers.CreateTestBatch("batch-002", "RED-LAMP", 50, eta)

	s.NoError(s.repo.Add(s.ctx, batch))

	saved, err := s.repo.GetByReference(s.ctx, "batch-002")
	s.NoError(err)
	s.Require().NotNil(saved)
	s.False(saved.InStock())
	s.Require().NotNil(saved.ETA())
	s.Equal(eta.Format("2006-01-02"), saved.ETA().Format("2006-01-02"))
}

func (s *BatchRepositorySuite) TestAdd_DuplicateReference() {
	batch := helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)
	s.NoError(s.repo.Add(s.ctx, batch))

	err := s.repo.Add(s.ctx, helpers.CreateTestBatch("batch-001", "RED-LAMP", 10, nil))
	s.Error(err)
	s.Contains(err.Error(), "batch already exists")
}

func (s *BatchRepositorySuite) TestGetByReference_NotFound() {
	saved, err := s.repo.GetByReference(s.ctx, "missing")
	s.NoError(err)
	s.Nil(saved)
}

func (s *BatchRepositorySuite) TestSaveAllocation_RoundTrip() {
	batch := helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)
	s.NoError(s.repo.Add(s.ctx, batch))

	line := domain.NewOrderLine("order-001", "SMALL-TABLE", 2)
	s.NoError(s.repo.SaveAllocation(s.ctx, "batch-001", line))

	saved, err := s.repo.GetByReference(s.ctx, "batch-001")
	s.NoError(err)
	s.Require().NotNil(saved)
	s.Equal(2, saved.AllocatedQuantity())
	s.Equal(18, saved.AvailableQuantity())
	s.True(saved.HasAllocation(line))
}

func (s *BatchRepositorySuite) TestSaveAllocation_IsIdempotent() {
	batch := helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)
	s.NoError(s.repo.Add(s.ctx, batch))

	line := domain.NewOrderLine("order-001", "SMALL-TABLE", 2)
	s.NoError(s.repo.SaveAllocation(s.ctx, "batch-001", line))
	s.NoError(s.repo.SaveAllocation(s.ctx, "batch-001", line))

	saved, err := s.repo.GetByReference(s.ctx, "batch-001")
	s.NoError(err)
	s.Equal(2, saved.AllocatedQuantity())
	s.Len(saved.Allocations(), 1)
}

func (s *BatchRepositorySuite) TestDeleteAllocation() {
	batch := helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)
	s.NoError(s.repo.Add(s.ctx, batch))

	line := domain.NewOrderLine("order-001", "SMALL-TABLE", 2)
	s.NoError(s.repo.SaveAllocation(s.ctx, "batch-001", line))

	reference, err := s.repo.DeleteAllocation(s.ctx, line)
	s.NoError(err)
	s.Equal("batch-001", reference)

	saved, err := s.repo.GetByReference(s.ctx, "batch-001")
	s.NoError(err)
	s.Equal(0, saved.AllocatedQuantity())
}

func (s *BatchRepositorySuite) TestDeleteAllocation_NotFound() {
	line := domain.NewOrderLine("order-999", "SMALL-TABLE", 2)

	_, err := s.repo.DeleteAllocation(s.ctx, line)
	s.ErrorIs(err, ports.ErrAllocationNotFound)
}

func (s *BatchRepositorySuite) TestListBySKU() {
	s.NoError(s.repo.Add(s.ctx, helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)))
	s.NoError(s.repo.Add(s.ctx, helpers.CreateTestBatch("batch-002", "SMALL-TABLE", 50, helpers.Eta(2026, 9, 15))))
	s.NoError(s.repo.Add(s.ctx, helpers.CreateTestBatch("batch-003", "RED-LAMP", 30, nil)))

	batches, err := s.repo.ListBySKU(s.ctx, "SMALL-TABLE")
	s.NoError(err)
	s.Len(batches, 2)
	for _, b := range batches {
		s.Equal("SMALL-TABLE", b.SKU())
	}

	all, err := s.repo.ListAll(s.ctx)
	s.NoError(err)
	s.Len(all, 3)
}

func (s *BatchRepositorySuite) TestListBySKU_NoBatches() {
	batches, err := s.repo.ListBySKU(s.ctx, "UNKNOWN")
	s.NoError(err)
	s.Empty(batches)
}

func (s *BatchRepositorySuite) TestWithTx_CommitsAllocation() {
	s.NoError(s.repo.Add(s.ctx, helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)))

	line := domain.NewOrderLine("order-tx", "SMALL-TABLE", 3)

	err := s.testDB.Database.TransactionWithOptions(s.ctx,
		pgx.TxOptions{IsoLevel: pgx.Serializable},
		func(tx pgx.Tx) error {
			txRepo := s.repo.WithTx(tx)

			batches, err := txRepo.ListBySKU(s.ctx, "SMALL-TABLE")
			s.Require().NoError(err)
			s.Require().Len(batches, 1)

			return txRepo.SaveAllocation(s.ctx, "batch-001", line)
		})
	s.NoError(err)

	saved, err := s.repo.GetByReference(s.ctx, "batch-001")
	s.NoError(err)
	s.True(saved.HasAllocation(line))
}

func (s *BatchRepositorySuite) TestWithTx_RollsBackOnError() {
	s.NoError(s.repo.Add(s.ctx, helpers.CreateTestBatch("batch-001", "SMALL-TABLE", 20, nil)))

	line := domain.NewOrderLine("order-rollback", "SMALL-TABLE", 3)

	err := s.testDB.Database.Transaction(s.ctx, func(tx pgx.Tx) error {
		if err := s.repo.WithTx(tx).SaveAllocation(s.ctx, "batch-001", line); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	s.Error(err)

	saved, err := s.repo.GetByReference(s.ctx, "batch-001")
	s.NoError(err)
	s.False(saved.HasAllocation(line))
}

func (s *BatchRepositorySuite) TestListAll_ManyBatches() {
	for i := 0; i < 50; i++ {
		ref := fmt.Sprintf("batch-bulk-%03d", i)
		s.Require().NoError(s.repo.Add(s.ctx, helpers.CreateTestBatch(ref, "BULK-SKU", 100, nil)))
	}

	start := time.Now()
	all, err := s.repo.ListAll(s.ctx)
	s.NoError(err)
	s.Len(all, 50)
	s.Less(time.Since(start), 2*time.Second)
}

func TestBatchRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(BatchRepositorySuite))
}
