// Package expenses records cash outflows, general or attributed to a batch.
package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
)

// ExpenseDraft is the caller input for an expense. An empty BatchID records a
// general expense.
type ExpenseDraft struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	BatchID     string          `json:"batchId"`
}

type Service struct {
	store  repository.LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store repository.LedgerStore, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, logger: logger, now: now}
}

// CreateExpense stores the expense. The batch name is copied onto the record so
// it survives renames and deletion of the batch.
func (s *Service) CreateExpense(ctx context.Context, draft ExpenseDraft) (models.Expense, error) {
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		return models.Expense{}, fmt.Errorf("%w: description is required", models.ErrInvalidInput)
	}
	if !draft.Amount.IsPositive() {
		return models.Expense{}, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}

	date, err := models.StampDate(draft.Date, s.now())
	if err != nil {
		return models.Expense{}, err
	}

	expense := models.Expense{
		Description: description,
		Amount:      draft.Amount,
		Date:        date,
	}

	if batchID := strings.TrimSpace(draft.BatchID); batchID != "" {
		batch, err := s.store.GetBatch(ctx, batchID)
		if err != nil {
			return models.Expense{}, err
		}
		expense.BatchID = batch.ID
		expense.BatchName = batch.Name
	}

	expense.ID, err = s.store.CreateExpense(ctx, expense)
	if err != nil {
		return models.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.Info("expense recorded",
		zap.String("expense_id", expense.ID),
		zap.String("batch_id", expense.BatchID),
		zap.String("amount", expense.Amount.String()))
	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.logger.Info("expense deleted", zap.String("expense_id", id))
	return nil
}
