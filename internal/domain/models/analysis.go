package models

import "github.com/shopspring/decimal"

// CustomerType buckets sales by buyer kind.
type CustomerType string

const (
	CustomerReseller    CustomerType = "reseller"
	CustomerEndCustomer CustomerType = "end-customer"
)

// BatchAnalysis is derived on demand from the ledger and never persisted.
type BatchAnalysis struct {
	BatchID               string               `json:"batchId"`
	BatchName             string               `json:"batchName"`
	Finalized             bool                 `json:"finalized"`
	SalesCount            int                  `json:"salesCount"`
	ItemsSold             int                  `json:"itemsSold"`
	TotalInitialStock     int                  `json:"totalInitialStock"`
	RemainingStock        int                  `json:"remainingStock"`
	TotalRevenue          decimal.Decimal      `json:"totalRevenue"`
	TotalInvestment       decimal.Decimal      `json:"totalInvestment"`
	CostOfGoodsSold       decimal.Decimal      `json:"costOfGoodsSold"`
	GrossProfit           decimal.Decimal      `json:"grossProfit"`
	BatchExpenses         decimal.Decimal      `json:"batchExpenses"`
	NetProfit             decimal.Decimal      `json:"netProfit"`
	DaysActive            int                  `json:"daysActive"`
	DailyAverageUnits     float64              `json:"dailyAverageUnits"`
	ProgressPercent       float64              `json:"progressPercent"`
	SourceBreakdown       map[SaleSource]int   `json:"sourceBreakdown"`
	CustomerTypeBreakdown map[CustomerType]int `json:"customerTypeBreakdown"`
}

// Overview summarizes the whole ledger.
type Overview struct {
	Batches       int             `json:"batches"`
	OpenBatches   int             `json:"openBatches"`
	SalesCount    int             `json:"salesCount"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetCash       decimal.Decimal `json:"netCash"`
}
