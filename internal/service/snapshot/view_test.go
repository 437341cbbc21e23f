package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
	"github.com/mamadbah2/batchbook/internal/repository/memory"
)

var created = time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)

func TestView_Apply(t *testing.T) {
	view := NewView(nil)
	assert.False(t, view.Ready())

	view.Apply(repository.Snapshot{Collection: repository.CollectionBatches, Batches: []models.Batch{
		{ID: "b2", Name: "December", CreatedAt: created.AddDate(0, 1, 0)},
		{ID: "b1", Name: "November", CreatedAt: created},
	}})
	view.Apply(repository.Snapshot{Collection: repository.CollectionSales, Sales: []models.Sale{{ID: "s1", BatchID: "b1"}}})
	assert.False(t, view.Ready())
	view.Apply(repository.Snapshot{Collection: repository.CollectionExpenses})
	assert.True(t, view.Ready())

	t.Run("replaces instead of merging", func(t *testing.T) {
		view.Apply(repository.Snapshot{Collection: repository.CollectionSales, Sales: []models.Sale{{ID: "s2", BatchID: "b2"}}})

		sales := view.Sales()
		require.Len(t, sales, 1)
		assert.Equal(t, "s2", sales[0].ID)
	})

	t.Run("finds batches by id or name", func(t *testing.T) {
		batch, ok := view.FindBatch("b2")
		require.True(t, ok)
		assert.Equal(t, "December", batch.Name)

		batch, ok = view.FindBatch(" november ")
		require.True(t, ok)
		assert.Equal(t, "b1", batch.ID)

		_, ok = view.FindBatch("january")
		assert.False(t, ok)
		_, ok = view.FindBatch("")
		assert.False(t, ok)
	})

	t.Run("readers get copies", func(t *testing.T) {
		batches := view.Batches()
		batches[0].Name = "changed"

		batch, _ := view.Batch("b2")
		assert.Equal(t, "December", batch.Name)
	})
}

func TestView_RunFollowsStore(t *testing.T) {
	store := memory.New()
	view := NewView(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- view.Run(ctx, store) }()

	require.Eventually(t, view.Ready, time.Second, 5*time.Millisecond)

	id, err := store.CreateBatch(ctx, models.BatchDraft{Name: "November", CreatedAt: created})
	require.NoError(t, err)
	_, err = store.CreateExpense(ctx, models.Expense{Description: "Packaging", Amount: decimal.NewFromInt(4), Date: created})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := view.Batch(id)
		return ok && len(view.Expenses()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("view did not stop after cancellation")
	}
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, repository.Collection) (<-chan repository.Snapshot, error) {
	return nil, errors.New("store unreachable")
}

func TestView_RunSubscribeError(t *testing.T) {
	view := NewView(nil)
	err := view.Run(context.Background(), failingSubscriber{})
	assert.Error(t, err)
	assert.False(t, view.Ready())
}
