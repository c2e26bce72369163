package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/storage"
)

func testRun(runID, batchID string, createdAt int64) *domain.RunRecord {
	return &domain.RunRecord{
		RunID:   runID,
		BatchID: batchID,
		Label:   "decay=0.5",
		Model:   domain.ModelExponentialDecay,
		Params: domain.SimulationParameters{
			Common: domain.CommonParams{InitialSupply: 1_000_000, TGEPrice: 4, Horizon: 60, DiscountFactor: 0.9},
			Revenue: domain.RevenueParams{
				InitialRevenue:    200_000,
				RevenueGrowthRate: 0.02,
				TargetRevenue:     ptr(3_000_000.0),
			},
			Exponential: &domain.ExponentialParams{DecayRate: 0.5},
		},
		Summary: domain.Summary{
			Model:       domain.ModelExponentialDecay,
			Horizon:     60,
			FinalSupply: 744_532.5,
			TotalDemand: 1_234_567.89,
			DemandP50:   12_000,
		},
		CreatedAt: createdAt,
	}
}

func TestRunStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := testRun("run-001", "", 1700000000000)
	require.NoError(t, store.Insert(ctx, run))

	retrieved, err := store.GetByID(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, retrieved.RunID)
	assert.Equal(t, run.Label, retrieved.Label)
	assert.Equal(t, run.Model, retrieved.Model)
	assert.Equal(t, run.CreatedAt, retrieved.CreatedAt)
	assert.Equal(t, run.Summary, retrieved.Summary)
	require.NotNil(t, retrieved.Params.Exponential)
	assert.Equal(t, 0.5, retrieved.Params.Exponential.DecayRate)
	require.NotNil(t, retrieved.Params.Revenue.TargetRevenue)
	assert.Equal(t, 3_000_000.0, *retrieved.Params.Revenue.TargetRevenue)
	assert.Nil(t, retrieved.Params.Buyback)
}

func TestRunStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	run := testRun("run-dup", "", 1700000000000)
	require.NoError(t, store.Insert(ctx, run))

	err := store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_Queries(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRun("b", "batch-1", 200)))
	require.NoError(t, store.Insert(ctx, testRun("a", "batch-1", 200)))
	require.NoError(t, store.Insert(ctx, testRun("c", "batch-2", 100)))

	batch, err := store.GetByBatchID(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].RunID)
	assert.Equal(t, "b", batch[1].RunID)

	byModel, err := store.GetByModel(ctx, domain.ModelExponentialDecay)
	require.NoError(t, err)
	require.Len(t, byModel, 3)
	assert.Equal(t, "c", byModel[0].RunID)

	inRange, err := store.GetByTimeRange(ctx, 150, 250)
	require.NoError(t, err)
	assert.Len(t, inRange, 2)
}
