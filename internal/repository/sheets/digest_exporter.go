package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// DigestHeader names the columns of one digest row.
var DigestHeader = []interface{}{
	"date", "batch_id", "batch", "progress_percent", "items_sold", "initial_stock",
	"revenue", "cogs", "expenses", "net_profit", "days_active",
}

// DigestExporter appends one row per analyzed batch to a sheet range,
// writing the header first when the range is empty.
type DigestExporter struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger

	mu            sync.Mutex
	headerChecked bool
}

func NewDigestExporter(repo Repository, sheetRange string, logger *zap.Logger) *DigestExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestExporter{repo: repo, sheetRange: sheetRange, logger: logger}
}

// Export writes the analyses dated at the given day. It stops at the first
// failed row; rows written before it stay.
func (e *DigestExporter) Export(ctx context.Context, day time.Time, analyses []models.BatchAnalysis) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureHeader(ctx); err != nil {
		return err
	}

	for _, a := range analyses {
		if err := e.repo.WriteRow(ctx, e.sheetRange, digestRow(day, a)); err != nil {
			return fmt.Errorf("export digest row for batch %s: %w", a.BatchID, err)
		}
	}

	e.logger.Info("digest exported", zap.String("range", e.sheetRange), zap.Int("rows", len(analyses)))
	return nil
}

func (e *DigestExporter) ensureHeader(ctx context.Context) error {
	if e.headerChecked {
		return nil
	}

	rows, err := e.repo.ReadRange(ctx, e.sheetRange)
	if err != nil {
		return fmt.Errorf("check digest header: %w", err)
	}
	if len(rows) == 0 {
		if err := e.repo.WriteRow(ctx, e.sheetRange, DigestHeader); err != nil {
			return fmt.Errorf("write digest header: %w", err)
		}
		e.logger.Debug("digest header written", zap.String("range", e.sheetRange))
	}

	e.headerChecked = true
	return nil
}

func digestRow(day time.Time, a models.BatchAnalysis) []interface{} {
	return []interface{}{
		day.Format(models.DateLayout),
		a.BatchID,
		a.BatchName,
		fmt.Sprintf("%.2f", a.ProgressPercent),
		a.ItemsSold,
		a.TotalInitialStock,
		a.TotalRevenue.StringFixed(2),
		a.CostOfGoodsSold.StringFixed(2),
		a.BatchExpenses.StringFixed(2),
		a.NetProfit.StringFixed(2),
		a.DaysActive,
	}
}
