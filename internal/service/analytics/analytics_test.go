package analytics

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
	"github.com/mamadbah2/batchbook/internal/service/batches"
	"github.com/mamadbah2/batchbook/internal/service/sales"
	"github.com/mamadbah2/batchbook/internal/service/snapshot"
)

var (
	created = time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)
	now     = time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func podBatch() models.Batch {
	return models.Batch{
		ID:        "b1",
		Name:      "November",
		CreatedAt: created,
		Items: models.NewItemSet(models.Item{
			ID: "i1", Product: "Pod", Variant: "Mint", CostPerUnit: dec(100), InitialStock: 10, CurrentStock: 5,
		}),
	}
}

func TestAnalyze_Example(t *testing.T) {
	batch := podBatch()
	ledgerSales := []models.Sale{
		{ID: "s1", BatchID: "b1", ItemID: "i1", Quantity: 3, UnitPrice: dec(200), CostPerUnitAtSale: dec(100), NetCashIn: dec(600), Source: models.SourceSocial},
		{ID: "s2", BatchID: "b1", ItemID: "i1", Quantity: 2, UnitPrice: dec(200), CostPerUnitAtSale: dec(100), NetCashIn: dec(400), Source: models.SourceMessaging, IsReseller: true},
		{ID: "s3", BatchID: "other", ItemID: "x", Quantity: 7, NetCashIn: dec(70), CostPerUnitAtSale: dec(1)},
	}

	a := Analyze(batch, ledgerSales, nil, now)

	assert.Equal(t, 5, a.ItemsSold)
	assert.Equal(t, 2, a.SalesCount)
	assert.True(t, a.TotalRevenue.Equal(dec(1000)))
	assert.True(t, a.CostOfGoodsSold.Equal(dec(500)))
	assert.True(t, a.GrossProfit.Equal(dec(500)))
	assert.True(t, a.NetProfit.Equal(dec(500)))
	assert.True(t, a.TotalInvestment.Equal(dec(1000)))
	assert.InDelta(t, 50.0, a.ProgressPercent, 1e-9)
	assert.Equal(t, 10, a.TotalInitialStock)
	assert.Equal(t, 5, a.RemainingStock)
	assert.Equal(t, map[models.SaleSource]int{models.SourceSocial: 1, models.SourceMessaging: 1}, a.SourceBreakdown)
	assert.Equal(t, 1, a.CustomerTypeBreakdown[models.CustomerReseller])
	assert.Equal(t, 1, a.CustomerTypeBreakdown[models.CustomerEndCustomer])
}

func TestAnalyze_Expenses(t *testing.T) {
	expenses := []models.Expense{
		{ID: "e1", BatchID: "b1", Amount: decimal.RequireFromString("12.50")},
		{ID: "e2", Amount: dec(99)},
		{ID: "e3", BatchID: "other", Amount: dec(7)},
	}
	sale := models.Sale{BatchID: "b1", Quantity: 1, NetCashIn: dec(200), CostPerUnitAtSale: dec(100)}

	a := Analyze(podBatch(), []models.Sale{sale}, expenses, now)

	assert.True(t, a.BatchExpenses.Equal(decimal.RequireFromString("12.50")))
	assert.True(t, a.NetProfit.Equal(decimal.RequireFromString("87.50")))
}

func TestAnalyze_ZeroGuards(t *testing.T) {
	a := Analyze(models.Batch{ID: "empty", CreatedAt: now}, nil, nil, now)

	assert.Equal(t, 0.0, a.ProgressPercent)
	assert.Equal(t, 0.0, a.DailyAverageUnits)
	assert.Equal(t, 1, a.DaysActive)
	assert.True(t, a.TotalRevenue.IsZero())
	assert.Empty(t, a.SourceBreakdown)
}

func TestAnalyze_EmptySourceCountsAsOther(t *testing.T) {
	a := Analyze(podBatch(), []models.Sale{{BatchID: "b1", Quantity: 1}}, nil, now)
	assert.Equal(t, 1, a.SourceBreakdown[models.SourceOther])
}

func TestDaysActive(t *testing.T) {
	finalized := created.Add(36 * time.Hour)

	cases := map[string]struct {
		batch models.Batch
		now   time.Time
		want  int
	}{
		"same instant":          {models.Batch{CreatedAt: created}, created, 1},
		"just under a day":      {models.Batch{CreatedAt: created}, created.Add(23 * time.Hour), 1},
		"exactly one day":       {models.Batch{CreatedAt: created}, created.Add(day), 2},
		"open batch uses now":   {models.Batch{CreatedAt: created}, now, 4},
		"finalized freezes":     {models.Batch{CreatedAt: created, FinalizedAt: &finalized}, now, 2},
		"clock behind creation": {models.Batch{CreatedAt: created}, created.Add(-72 * time.Hour), 1},
		"finalized ignores now": {models.Batch{CreatedAt: created, FinalizedAt: &finalized}, created, 2},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysActive(tc.batch, tc.now))
		})
	}
}

func TestOverview(t *testing.T) {
	finalized := created.Add(day)
	ledger := snapshot.Ledger{
		Batches: []models.Batch{
			{ID: "b1", CreatedAt: created},
			{ID: "b2", CreatedAt: created, FinalizedAt: &finalized},
		},
		Sales: []models.Sale{
			{BatchID: "b1", NetCashIn: dec(300)},
			{BatchID: "gone", NetCashIn: dec(50)},
		},
		Expenses: []models.Expense{
			{Amount: dec(20)},
			{BatchID: "b2", Amount: dec(30)},
		},
	}

	o := Overview(ledger)

	assert.Equal(t, 2, o.Batches)
	assert.Equal(t, 1, o.OpenBatches)
	assert.Equal(t, 2, o.SalesCount)
	assert.True(t, o.TotalRevenue.Equal(dec(350)))
	assert.True(t, o.TotalExpenses.Equal(dec(50)))
	assert.True(t, o.NetCash.Equal(dec(300)))
}

type staticLedger snapshot.Ledger

func (s staticLedger) Ledger() snapshot.Ledger { return snapshot.Ledger(s) }

func TestService(t *testing.T) {
	svc := NewService(staticLedger{Batches: []models.Batch{podBatch()}}, func() time.Time { return now }, nil)

	a, err := svc.AnalyzeBatch("b1")
	require.NoError(t, err)
	assert.Equal(t, "November", a.BatchName)
	assert.Equal(t, 4, a.DaysActive)

	_, err = svc.AnalyzeBatch("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Len(t, svc.AnalyzeOpen(), 1)

	digest := svc.Digest()
	assert.Contains(t, digest, "Daily digest 2024-11-05")
	assert.Contains(t, digest, "November")
	assert.Contains(t, digest, "Day 4")
}

func TestRenderers(t *testing.T) {
	a := Analyze(podBatch(), []models.Sale{{BatchID: "b1", Quantity: 5, NetCashIn: dec(1000), CostPerUnitAtSale: dec(100), Source: models.SourceInPerson}}, nil, now)

	report := RenderReport(a)
	assert.Contains(t, report, "Report November (open)")
	assert.Contains(t, report, "Sold 5/10 units (50%)")
	assert.Contains(t, report, "Revenue $1000.00")
	assert.Contains(t, report, "in-person 1")

	stock := RenderStock(podBatch())
	assert.Contains(t, stock, "- Pod (Mint): 5/10")
	assert.Equal(t, "Empty has no items yet.", RenderStock(models.Batch{Name: "Empty"}))

	assert.Equal(t, "No open batches.", RenderBatchList(nil))
	assert.Contains(t, RenderBatchList([]models.BatchAnalysis{a}), "- November: 5/10 sold (50%)")
}

// Recording then deleting a sale leaves analytics where they started.
func TestProfitIdempotence(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := func() time.Time { return now }
	batchSvc := batches.NewService(store, clock, nil)
	engine := sales.NewEngine(store, clock, nil)

	batch, err := batchSvc.CreateBatch(ctx, "November")
	require.NoError(t, err)
	item, err := batchSvc.AddItem(ctx, batch.ID, models.ItemDraft{Product: "Pod", CostPerUnit: dec(100), InitialStock: 10})
	require.NoError(t, err)
	_, err = engine.RecordSale(ctx, sales.RecordSaleRequest{BatchID: batch.ID, ItemID: item.ID, Quantity: 2, UnitPrice: dec(200)})
	require.NoError(t, err)

	analyze := func() models.BatchAnalysis {
		view := snapshot.NewView(nil)
		for _, collection := range repository.Collections {
			subCtx, cancel := context.WithCancel(ctx)
			ch, err := store.Subscribe(subCtx, collection)
			require.NoError(t, err)
			view.Apply(<-ch)
			cancel()
		}
		a, err := NewService(view, clock, nil).AnalyzeBatch(batch.ID)
		require.NoError(t, err)
		return a
	}

	before := analyze()

	sale, err := engine.RecordSale(ctx, sales.RecordSaleRequest{BatchID: batch.ID, ItemID: item.ID, Quantity: 3, UnitPrice: dec(250)})
	require.NoError(t, err)
	during := analyze()
	assert.Equal(t, before.ItemsSold+3, during.ItemsSold)

	require.NoError(t, engine.DeleteSale(ctx, sale))
	after := analyze()

	assert.Equal(t, before.ItemsSold, after.ItemsSold)
	assert.Equal(t, before.RemainingStock, after.RemainingStock)
	assert.True(t, before.TotalRevenue.Equal(after.TotalRevenue))
	assert.True(t, before.CostOfGoodsSold.Equal(after.CostOfGoodsSold))
}
