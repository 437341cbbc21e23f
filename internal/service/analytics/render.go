package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// Money formats an amount with two decimals.
func Money(value decimal.Decimal) string {
	return "$" + value.StringFixed(2)
}

// RenderReport formats one analysis for a chat reply.
func RenderReport(a models.BatchAnalysis) string {
	state := "open"
	if a.Finalized {
		state = "finalized"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report %s (%s)\n", a.BatchName, state)
	fmt.Fprintf(&b, "Sold %d/%d units (%.0f%%) in %d sales, %d left\n", a.ItemsSold, a.TotalInitialStock, a.ProgressPercent, a.SalesCount, a.RemainingStock)
	fmt.Fprintf(&b, "Revenue %s | COGS %s | Gross %s\n", Money(a.TotalRevenue), Money(a.CostOfGoodsSold), Money(a.GrossProfit))
	fmt.Fprintf(&b, "Expenses %s | Net %s | Invested %s\n", Money(a.BatchExpenses), Money(a.NetProfit), Money(a.TotalInvestment))
	fmt.Fprintf(&b, "%d days active, %.1f units/day", a.DaysActive, a.DailyAverageUnits)

	if len(a.SourceBreakdown) > 0 {
		sources := make([]string, 0, len(a.SourceBreakdown))
		for source := range a.SourceBreakdown {
			sources = append(sources, string(source))
		}
		sort.Strings(sources)

		parts := make([]string, 0, len(sources))
		for _, source := range sources {
			parts = append(parts, fmt.Sprintf("%s %d", source, a.SourceBreakdown[models.SaleSource(source)]))
		}
		fmt.Fprintf(&b, "\nSources: %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "\nResellers %d | End customers %d",
		a.CustomerTypeBreakdown[models.CustomerReseller], a.CustomerTypeBreakdown[models.CustomerEndCustomer])

	return b.String()
}

// RenderStock lists the items of a batch with their remaining stock.
func RenderStock(batch models.Batch) string {
	items := batch.Items.Ordered()
	if len(items) == 0 {
		return fmt.Sprintf("%s has no items yet.", batch.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stock %s", batch.Name)
	for _, item := range items {
		fmt.Fprintf(&b, "\n- %s (%s): %d/%d", item.Product, item.Variant, item.CurrentStock, item.InitialStock)
	}
	return b.String()
}

// RenderBatchList summarizes open batches, one per line.
func RenderBatchList(analyses []models.BatchAnalysis) string {
	if len(analyses) == 0 {
		return "No open batches."
	}

	var b strings.Builder
	b.WriteString("Open batches")
	for _, a := range analyses {
		fmt.Fprintf(&b, "\n- %s: %d/%d sold (%.0f%%)", a.BatchName, a.ItemsSold, a.TotalInitialStock, a.ProgressPercent)
	}
	return b.String()
}

// RenderDigest is the daily summary: one block per open batch plus ledger totals.
func RenderDigest(now time.Time, analyses []models.BatchAnalysis, overview models.Overview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily digest %s", now.Format(models.DateLayout))

	if len(analyses) == 0 {
		b.WriteString("\nNo open batches.")
	}
	for _, a := range analyses {
		fmt.Fprintf(&b, "\n\n%s\nProgress %.0f%% (%d/%d)\nRevenue %s | Net %s\nDay %d",
			a.BatchName, a.ProgressPercent, a.ItemsSold, a.TotalInitialStock,
			Money(a.TotalRevenue), Money(a.NetProfit), a.DaysActive)
	}

	fmt.Fprintf(&b, "\n\nAll time: revenue %s, expenses %s, net cash %s",
		Money(overview.TotalRevenue), Money(overview.TotalExpenses), Money(overview.NetCash))
	return b.String()
}
