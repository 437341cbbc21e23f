package batches

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
	"github.com/mamadbah2/batchbook/internal/repository/memory"
)

var clock = time.Date(2024, 11, 20, 18, 0, 0, 0, time.UTC)

func newTestService(store repository.LedgerStore) *Service {
	return NewService(store, func() time.Time { return clock }, nil)
}

func podDraft(stock int) models.ItemDraft {
	return models.ItemDraft{Product: "Pod", Variant: "Mint", CostPerUnit: decimal.NewFromInt(100), InitialStock: stock}
}

func TestService_CreateBatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())

	t.Run("creates an open empty batch", func(t *testing.T) {
		batch, err := svc.CreateBatch(ctx, "  November order ")

		require.NoError(t, err)
		assert.NotEmpty(t, batch.ID)
		assert.Equal(t, "November order", batch.Name)
		assert.Equal(t, clock, batch.CreatedAt)

		stored, err := svc.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsFinalized())
		assert.Equal(t, 0, stored.Items.Len())
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := svc.CreateBatch(ctx, "   ")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestService_Items(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())
	batch, err := svc.CreateBatch(ctx, "November")
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, batch.ID, podDraft(10))
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 10, item.CurrentStock)

	second, err := svc.AddItem(ctx, batch.ID, models.ItemDraft{Product: "Pod", CostPerUnit: decimal.NewFromInt(90), InitialStock: 4})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultVariant, second.Variant)

	stored, err := svc.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	ordered := stored.Items.Ordered()
	require.Len(t, ordered, 2)
	assert.Equal(t, item.ID, ordered[0].ID)
	assert.Equal(t, second.ID, ordered[1].ID)

	t.Run("invalid drafts leave the batch untouched", func(t *testing.T) {
		_, err := svc.AddItem(ctx, batch.ID, models.ItemDraft{Product: "Pod"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		again, _ := svc.GetBatch(ctx, batch.ID)
		assert.Equal(t, stored.Revision, again.Revision)
	})

	t.Run("remove item", func(t *testing.T) {
		require.NoError(t, svc.RemoveItem(ctx, batch.ID, second.ID))
		assert.ErrorIs(t, svc.RemoveItem(ctx, batch.ID, second.ID), models.ErrNotFound)

		again, _ := svc.GetBatch(ctx, batch.ID)
		assert.Equal(t, 1, again.Items.Len())
	})

	t.Run("unknown batch", func(t *testing.T) {
		_, err := svc.AddItem(ctx, "missing", podDraft(1))
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())
	batch, err := svc.CreateBatch(ctx, "November")
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, batch.ID, podDraft(2))
	require.NoError(t, err)

	finalized, err := svc.FinalizeBatch(ctx, batch.ID, "2024-11-20")
	require.NoError(t, err)
	require.NotNil(t, finalized.FinalizedAt)
	assert.Equal(t, clock, *finalized.FinalizedAt)

	t.Run("finalized batches refuse new items", func(t *testing.T) {
		_, err := svc.AddItem(ctx, batch.ID, podDraft(1))
		assert.ErrorIs(t, err, models.ErrBatchClosed)
	})

	t.Run("finalizing twice is rejected", func(t *testing.T) {
		_, err := svc.FinalizeBatch(ctx, batch.ID, "2024-11-20")
		assert.ErrorIs(t, err, models.ErrBatchClosed)
	})

	t.Run("finalized batches still allow item removal", func(t *testing.T) {
		extra, err := svc.GetBatch(ctx, batch.ID)
		require.NoError(t, err)
		require.NotNil(t, extra.FinalizedAt)
		require.NoError(t, svc.RemoveItem(ctx, batch.ID, item.ID))
	})

	t.Run("reopen clears the marker", func(t *testing.T) {
		reopened, err := svc.ReopenBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Nil(t, reopened.FinalizedAt)

		stored, _ := svc.GetBatch(ctx, batch.ID)
		assert.Nil(t, stored.FinalizedAt)

		again, err := svc.ReopenBatch(ctx, batch.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.Revision, again.Revision)
	})

	t.Run("rejects malformed finalization dates", func(t *testing.T) {
		_, err := svc.FinalizeBatch(ctx, batch.ID, "yesterday")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestService_FinalizeOnCreationDayNextMorning(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	current := clock
	svc := NewService(store, func() time.Time { return current }, nil)

	batch, err := svc.CreateBatch(ctx, "November")
	require.NoError(t, err)

	current = time.Date(2024, 11, 21, 9, 0, 0, 0, time.UTC)
	finalized, err := svc.FinalizeBatch(ctx, batch.ID, "2024-11-20")

	require.NoError(t, err)
	require.NotNil(t, finalized.FinalizedAt)
	assert.Equal(t, clock, *finalized.FinalizedAt)

	_, err = svc.ReopenBatch(ctx, batch.ID)
	require.NoError(t, err)
	_, err = svc.FinalizeBatch(ctx, batch.ID, "2024-11-19")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestService_DeleteBatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())
	batch, err := svc.CreateBatch(ctx, "November")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBatch(ctx, batch.ID))
	assert.ErrorIs(t, svc.DeleteBatch(ctx, batch.ID), models.ErrNotFound)
	_, err = svc.GetBatch(ctx, batch.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// racingStore lets another writer update the batch between the read and the write.
type racingStore struct {
	*memory.Store
	race func()
}

func (r *racingStore) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	batch, err := r.Store.GetBatch(ctx, id)
	if r.race != nil {
		race := r.race
		r.race = nil
		race()
	}
	return batch, err
}

func TestService_ConcurrentWriteConflicts(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Store: memory.New()}
	svc := newTestService(store)

	batch, err := svc.CreateBatch(ctx, "November")
	require.NoError(t, err)

	store.race = func() {
		items := models.NewItemSet(models.Item{ID: "other", Product: "From another session", CostPerUnit: decimal.NewFromInt(1), InitialStock: 1, CurrentStock: 1})
		require.NoError(t, store.Store.UpdateBatch(ctx, batch.ID, models.BatchPatch{Items: &items}))
	}

	_, err = svc.AddItem(ctx, batch.ID, podDraft(5))

	assert.ErrorIs(t, err, models.ErrConflict)
	assert.ErrorIs(t, err, models.ErrPersistence)
	stored, _ := store.Store.GetBatch(ctx, batch.ID)
	require.Equal(t, 1, stored.Items.Len())
	_, ok := stored.Items.Get("other")
	assert.True(t, ok, "the concurrent edit must not be clobbered")
}
