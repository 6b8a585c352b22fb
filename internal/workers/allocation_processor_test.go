// internal/workers/allocation_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jhalloran/allocation-be/internal/core/ports"
	"github.com/jhalloran/allocation-be/internal/workers"
	"github.com/jhalloran/allocation-be/test/helpers"
	"github.com/jhalloran/allocation-be/test/mocks"
)

func TestAllocationProcessor_HandleAllocationRecorded(t *testing.T) {
	tests := []struct {
		name          string
		payload       workers.AllocationEventPayload
		setupMocks    func(*mocks.MockAllocationService, *mocks.MockDatabase)
		expectedError bool
		errorContains string
	}{
		{
			name: "records_allocated_event_and_warms_cache",
			payload: workers.AllocationEventPayload{
				Event:     workers.EventAllocated,
				BatchRef:  "batch-001",
				OrderID:   "order-001",
				SKU:       "SMALL-TABLE",
				Qty:       2,
				Timestamp: time.Now(),
			},
			setupMocks: func(service *mocks.MockAllocationService, db *mocks.MockDatabase) {
				db.EXPECT().
					Exec(gomock.Any(), gomock.Any(),
						workers.EventAllocated, "batch-001", "order-001",
						"SMALL-TABLE", 2, gomock.Any()).
					Return(pgconn.CommandTag{}, nil)

				service.EXPECT().
					StockLevel(gomock.Any(), "SMALL-TABLE").
					Return(&ports.StockLevel{SKU: "SMALL-TABLE"}, nil)
			},
			expectedError: false,
		},
		{
			name: "cache_warming_failure_does_not_fail_task",
			payload: workers.AllocationEventPayload{
				Event:     workers.EventDeallocated,
				BatchRef:  "batch-001",
				OrderID:   "order-001",
				SKU:       "SMALL-TABLE",
				Qty:       2,
				Timestamp: time.Now(),
			},
			setupMocks: func(service *mocks.MockAllocationService, db *mocks.MockDatabase) {
				db.EXPECT().
					Exec(gomock.Any(), gomock.Any(),
						gomock.Any(), gomock.Any(), gomock.Any(),
						gomock.Any(), gomock.Any(), gomock.Any()).
					Return(pgconn.CommandTag{}, nil)

				service.EXPECT().
					StockLevel(gomock.Any(), "SMALL-TABLE").
					Return(nil, errors.New("redis unavailable"))
			},
			expectedError: false,
		},
		{
			name: "insert_failure_fails_task_for_retry",
			payload: workers.AllocationEventPayload{
				Event:     workers.EventAllocated,
				BatchRef:  "batch-001",
				OrderID:   "order-001",
				SKU:       "SMALL-TABLE",
				Qty:       2,
				Timestamp: time.Now(),
			},
			setupMocks: func(service *mocks.MockAllocationService, db *mocks.MockDatabase) {
				db.EXPECT().
					Exec(gomock.Any(), gomock.Any(),
						gomock.Any(), gomock.Any(), gomock.Any(),
						gomock.Any(), gomock.Any(), gomock.Any()).
					Return(pgconn.CommandTag{}, errors.New("database connection failed"))
			},
			expectedError: true,
			errorContains: "failed to record allocation event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := mocks.NewMockAllocationService(ctrl)
			mockDB := mocks.NewMockDatabase(ctrl)
			logger := helpers.TestLogger()

			processor := workers.NewAllocationProcessor(mockService, mockDB, logger)

			tt.setupMocks(mockService, mockDB)

			payloadBytes, err := json.Marshal(tt.payload)
			require.NoError(t, err)

			task := asynq.NewTask(workers.TypeAllocationRecorded, payloadBytes)

			err = processor.HandleAllocationRecorded(context.Background(), task)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllocationProcessor_HandleAllocationRecorded_InvalidPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	processor := workers.NewAllocationProcessor(
		mocks.NewMockAllocationService(ctrl),
		mocks.NewMockDatabase(ctrl),
		helpers.TestLogger(),
	)

	task := asynq.NewTask(workers.TypeAllocationRecorded, []byte(`not json`))

	err := processor.HandleAllocationRecorded(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal payload")
}

func TestAllocationProcessor_HandleCleanupEvents(t *testing.T) {
	tests := []struct {
		name          string
		payload       []byte
		setupMocks    func(*mocks.MockDatabase)
		expectedError bool
	}{
		{
			name:    "prunes_with_explicit_retention",
			payload: mustMarshal(t, workers.CleanupEventsPayload{RetentionDays: 30}),
			setupMocks: func(db *mocks.MockDatabase) {
				db.EXPECT().
					Exec(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
						cutoff, ok := args[0].(time.Time)
						require.True(t, ok)
						// 30-day retention puts the cutoff near a month ago
						expected := time.Now().AddDate(0, 0, -30)
						assert.WithinDuration(t, expected, cutoff, time.Minute)
						return pgconn.NewCommandTag("DELETE 5"), nil
					})
			},
			expectedError: false,
		},
		{
			name:    "empty_payload_uses_default_retention",
			payload: nil,
			setupMocks: func(db *mocks.MockDatabase) {
				db.EXPECT().
					Exec(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, args ...interface{}) (pgconn.CommandTag, error) {
						cutoff, ok := args[0].(time.Time)
						require.True(t, ok)
						expected := time.Now().AddDate(0, 0, -90)
						assert.WithinDuration(t, expected, cutoff, time.Minute)
						return pgconn.NewCommandTag("DELETE 0"), nil
					})
			},
			expectedError: false,
		},
		{
			name:    "delete_failure_fails_task",
			payload: nil,
			setupMocks: func(db *mocks.MockDatabase) {
				db.EXPECT().
					Exec(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(pgconn.CommandTag{}, errors.New("database connection failed"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDB := mocks.NewMockDatabase(ctrl)
			processor := workers.NewAllocationProcessor(
				mocks.NewMockAllocationService(ctrl),
				mockDB,
				helpers.TestLogger(),
			)

			tt.setupMocks(mockDB)

			task := asynq.NewTask(workers.TypeCleanupEvents, tt.payload)

			err := processor.HandleCleanupEvents(context.Background(), task)

			if tt.expectedError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
