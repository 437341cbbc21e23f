package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository/memory"
)

var clock = time.Date(2024, 11, 20, 9, 15, 0, 0, time.UTC)

func TestService_CreateExpense(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, func() time.Time { return clock }, nil)

	batchID, err := store.CreateBatch(ctx, models.BatchDraft{Name: "November", CreatedAt: clock})
	require.NoError(t, err)

	t.Run("general expense", func(t *testing.T) {
		expense, err := svc.CreateExpense(ctx, ExpenseDraft{Description: " Packaging ", Amount: decimal.NewFromInt(40)})

		require.NoError(t, err)
		assert.NotEmpty(t, expense.ID)
		assert.Equal(t, "Packaging", expense.Description)
		assert.True(t, expense.IsGeneral())
		assert.Equal(t, clock, expense.Date)
	})

	t.Run("batch expense snapshots the name", func(t *testing.T) {
		expense, err := svc.CreateExpense(ctx, ExpenseDraft{
			Description: "Customs",
			Amount:      decimal.RequireFromString("12.50"),
			Date:        "2024-11-02",
			BatchID:     batchID,
		})

		require.NoError(t, err)
		assert.Equal(t, batchID, expense.BatchID)
		assert.Equal(t, "November", expense.BatchName)
		assert.Equal(t, time.Date(2024, 11, 2, 9, 15, 0, 0, time.UTC), expense.Date)
	})

	t.Run("rejects invalid drafts", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, ExpenseDraft{Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = svc.CreateExpense(ctx, ExpenseDraft{Description: "Free", Amount: decimal.Zero})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = svc.CreateExpense(ctx, ExpenseDraft{Description: "Late", Amount: decimal.NewFromInt(1), Date: "soon"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("unknown batch", func(t *testing.T) {
		_, err := svc.CreateExpense(ctx, ExpenseDraft{Description: "Customs", Amount: decimal.NewFromInt(1), BatchID: "missing"})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestService_DeleteExpense(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil, nil)

	expense, err := svc.CreateExpense(ctx, ExpenseDraft{Description: "Packaging", Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteExpense(ctx, expense.ID))
	assert.ErrorIs(t, svc.DeleteExpense(ctx, expense.ID), models.ErrNotFound)
}
