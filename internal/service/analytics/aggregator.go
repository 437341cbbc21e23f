// Package analytics derives batch and ledger figures from a snapshot. Nothing
// here is persisted; every figure is recomputed on demand.
package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/service/snapshot"
)

const day = 24 * time.Hour

// Analyze computes the analysis of one batch against the sales and expenses
// of the ledger. Sales and expenses of other batches are ignored.
func Analyze(batch models.Batch, sales []models.Sale, expenses []models.Expense, now time.Time) models.BatchAnalysis {
	result := models.BatchAnalysis{
		BatchID:           batch.ID,
		BatchName:         batch.Name,
		Finalized:         batch.IsFinalized(),
		TotalInitialStock: batch.TotalInitialStock(),
		RemainingStock:    batch.TotalCurrentStock(),
		TotalRevenue:      decimal.Zero,
		TotalInvestment:   decimal.Zero,
		CostOfGoodsSold:   decimal.Zero,
		BatchExpenses:     decimal.Zero,
		SourceBreakdown:   make(map[models.SaleSource]int),
	}
	result.CustomerTypeBreakdown = map[models.CustomerType]int{
		models.CustomerReseller:    0,
		models.CustomerEndCustomer: 0,
	}

	for _, item := range batch.Items.Ordered() {
		result.TotalInvestment = result.TotalInvestment.Add(item.CostPerUnit.Mul(decimal.NewFromInt(int64(item.InitialStock))))
	}

	for _, sale := range sales {
		if sale.BatchID != batch.ID {
			continue
		}
		result.SalesCount++
		result.ItemsSold += sale.Quantity
		result.TotalRevenue = result.TotalRevenue.Add(sale.NetCashIn)
		result.CostOfGoodsSold = result.CostOfGoodsSold.Add(sale.CostPerUnitAtSale.Mul(decimal.NewFromInt(int64(sale.Quantity))))

		source := sale.Source
		if source == "" {
			source = models.SourceOther
		}
		result.SourceBreakdown[source]++

		if sale.IsReseller {
			result.CustomerTypeBreakdown[models.CustomerReseller]++
		} else {
			result.CustomerTypeBreakdown[models.CustomerEndCustomer]++
		}
	}

	for _, expense := range expenses {
		if expense.BatchID == batch.ID && batch.ID != "" {
			result.BatchExpenses = result.BatchExpenses.Add(expense.Amount)
		}
	}

	result.GrossProfit = result.TotalRevenue.Sub(result.CostOfGoodsSold)
	result.NetProfit = result.GrossProfit.Sub(result.BatchExpenses)

	result.DaysActive = DaysActive(batch, now)
	result.DailyAverageUnits = ratio(result.ItemsSold, result.DaysActive)
	result.ProgressPercent = ratio(result.ItemsSold, result.TotalInitialStock) * 100

	return result
}

// DaysActive counts whole days from creation to finalization (or now), plus
// the starting day. It is never below 1.
func DaysActive(batch models.Batch, now time.Time) int {
	end := now
	if batch.FinalizedAt != nil {
		end = *batch.FinalizedAt
	}
	days := int(math.Floor(float64(end.Sub(batch.CreatedAt))/float64(day))) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Overview totals the whole ledger. Expenses count whether general or
// attributed to a batch, including batches that no longer exist.
func Overview(ledger snapshot.Ledger) models.Overview {
	overview := models.Overview{
		Batches:       len(ledger.Batches),
		SalesCount:    len(ledger.Sales),
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, batch := range ledger.Batches {
		if !batch.IsFinalized() {
			overview.OpenBatches++
		}
	}
	for _, sale := range ledger.Sales {
		overview.TotalRevenue = overview.TotalRevenue.Add(sale.NetCashIn)
	}
	for _, expense := range ledger.Expenses {
		overview.TotalExpenses = overview.TotalExpenses.Add(expense.Amount)
	}
	overview.NetCash = overview.TotalRevenue.Sub(overview.TotalExpenses)
	return overview
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}
