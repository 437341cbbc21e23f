package commands

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
	"github.com/mamadbah2/batchbook/internal/service/analytics"
	"github.com/mamadbah2/batchbook/internal/service/snapshot"
)

var now = time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)

func newDispatcher() *Service {
	finalized := now.Add(-time.Hour)
	view := snapshot.NewView(nil)
	view.Apply(repository.Snapshot{Collection: repository.CollectionBatches, Batches: []models.Batch{
		{
			ID:        "b1",
			Name:      "November",
			CreatedAt: now.AddDate(0, 0, -4),
			Items: models.NewItemSet(models.Item{
				ID: "i1", Product: "Pod", Variant: "Mint", CostPerUnit: decimal.NewFromInt(100), InitialStock: 10, CurrentStock: 7,
			}),
		},
		{ID: "b0", Name: "October", CreatedAt: now.AddDate(0, -1, 0), FinalizedAt: &finalized},
	}})
	view.Apply(repository.Snapshot{Collection: repository.CollectionSales, Sales: []models.Sale{
		{ID: "s1", BatchID: "b1", ItemID: "i1", Quantity: 3, NetCashIn: decimal.NewFromInt(600), CostPerUnitAtSale: decimal.NewFromInt(100)},
	}})
	view.Apply(repository.Snapshot{Collection: repository.CollectionExpenses})

	reporting := analytics.NewService(view, func() time.Time { return now }, nil)
	return NewService(view, reporting, nil)
}

func TestService_HandleCommand(t *testing.T) {
	ctx := context.Background()
	svc := newDispatcher()

	t.Run("batches lists open batches only", func(t *testing.T) {
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/batches"), "549")
		require.NoError(t, err)
		assert.Contains(t, reply, "November: 3/10 sold (30%)")
		assert.NotContains(t, reply, "October")
	})

	t.Run("stock by case-insensitive name", func(t *testing.T) {
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("/STOCK november"), "549")
		require.NoError(t, err)
		assert.Contains(t, reply, "Pod (Mint): 7/10")
	})

	t.Run("report by id", func(t *testing.T) {
		reply, err := svc.HandleCommand(ctx, models.ParseCommand("report b1"), "549")
		require.NoError(t, err)
		assert.Contains(t, reply, "Report November (open)")
		assert.Contains(t, reply, "Revenue $600.00")
	})

	t.Run("missing batch reference", func(t *testing.T) {
		_, err := svc.HandleCommand(ctx, models.ParseCommand("/report"), "549")
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})

	t.Run("unknown batch", func(t *testing.T) {
		_, err := svc.HandleCommand(ctx, models.ParseCommand("/stock January"), "549")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("anything else yields help", func(t *testing.T) {
		for _, text := range []string{"hello", "/help", ""} {
			reply, err := svc.HandleCommand(ctx, models.ParseCommand(text), "549")
			require.NoError(t, err)
			assert.Equal(t, HelpText, reply)
		}
	})
}
