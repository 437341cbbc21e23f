// Package batches runs the batch and item commands against the ledger store.
package batches

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
	"github.com/mamadbah2/batchbook/internal/service/lifecycle"
	"github.com/mamadbah2/batchbook/internal/service/stock"
)

// Service applies batch commands. Every mutation re-reads the batch from the
// store and writes back conditionally on the revision it read.
type Service struct {
	store  repository.LedgerStore
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires a batch command service. A nil clock means time.Now.
func NewService(store repository.LedgerStore, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    now,
		newID:  uuid.NewString,
	}
}

// CreateBatch opens a new, empty batch.
func (s *Service) CreateBatch(ctx context.Context, name string) (models.Batch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Batch{}, fmt.Errorf("%w: batch name is required", models.ErrInvalidInput)
	}

	createdAt := s.now()
	id, err := s.store.CreateBatch(ctx, models.BatchDraft{Name: name, CreatedAt: createdAt})
	if err != nil {
		return models.Batch{}, fmt.Errorf("create batch: %w", err)
	}

	s.logger.Info("batch created", zap.String("batch_id", id), zap.String("name", name))
	return models.Batch{ID: id, Name: name, CreatedAt: createdAt, Revision: 1}, nil
}

// GetBatch returns the stored batch.
func (s *Service) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	return s.store.GetBatch(ctx, id)
}

// DeleteBatch removes the batch. Its sales stay behind as orphaned records.
func (s *Service) DeleteBatch(ctx context.Context, id string) error {
	if err := s.store.DeleteBatch(ctx, id); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	s.logger.Info("batch deleted", zap.String("batch_id", id))
	return nil
}

// AddItem adds a fully stocked item to an open batch.
func (s *Service) AddItem(ctx context.Context, batchID string, draft models.ItemDraft) (models.Item, error) {
	var added models.Item
	_, err := s.mutate(ctx, batchID, func(batch *models.Batch) (models.BatchPatch, error) {
		item, err := stock.AddItem(batch, draft, s.newID)
		if err != nil {
			return models.BatchPatch{}, err
		}
		added = item
		return models.BatchPatch{Items: &batch.Items}, nil
	})
	if err != nil {
		return models.Item{}, err
	}

	s.logger.Info("item added",
		zap.String("batch_id", batchID),
		zap.String("item_id", added.ID),
		zap.String("product", added.Product),
		zap.Int("initial_stock", added.InitialStock))
	return added, nil
}

// RemoveItem drops an item regardless of stock or existing sales.
func (s *Service) RemoveItem(ctx context.Context, batchID, itemID string) error {
	_, err := s.mutate(ctx, batchID, func(batch *models.Batch) (models.BatchPatch, error) {
		if err := stock.RemoveItem(batch, itemID); err != nil {
			return models.BatchPatch{}, err
		}
		return models.BatchPatch{Items: &batch.Items}, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("item removed", zap.String("batch_id", batchID), zap.String("item_id", itemID))
	return nil
}

// FinalizeBatch closes the batch on the given calendar date.
func (s *Service) FinalizeBatch(ctx context.Context, batchID, date string) (models.Batch, error) {
	batch, err := s.mutate(ctx, batchID, func(batch *models.Batch) (models.BatchPatch, error) {
		if err := lifecycle.Finalize(batch, date, s.now()); err != nil {
			return models.BatchPatch{}, err
		}
		return models.BatchPatch{FinalizedAt: batch.FinalizedAt}, nil
	})
	if err != nil {
		return models.Batch{}, err
	}

	s.logger.Info("batch finalized", zap.String("batch_id", batchID), zap.Time("finalized_at", *batch.FinalizedAt))
	return batch, nil
}

// ReopenBatch clears the finalization marker. Reopening an open batch changes nothing.
func (s *Service) ReopenBatch(ctx context.Context, batchID string) (models.Batch, error) {
	current, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return models.Batch{}, err
	}
	if !current.IsFinalized() {
		return current, nil
	}

	batch, err := s.mutate(ctx, batchID, func(batch *models.Batch) (models.BatchPatch, error) {
		lifecycle.Reopen(batch)
		return models.BatchPatch{ClearFinalizedAt: true}, nil
	})
	if err != nil {
		return models.Batch{}, err
	}

	s.logger.Info("batch reopened", zap.String("batch_id", batchID))
	return batch, nil
}

// mutate loads the latest batch, lets fn change a copy and describe the patch,
// then writes the patch conditionally on the revision that was read.
func (s *Service) mutate(ctx context.Context, id string, fn func(*models.Batch) (models.BatchPatch, error)) (models.Batch, error) {
	current, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return models.Batch{}, err
	}

	working := current.Clone()
	patch, err := fn(&working)
	if err != nil {
		return models.Batch{}, err
	}
	patch.ExpectedRevision = current.Revision

	if err := s.store.UpdateBatch(ctx, id, patch); err != nil {
		return models.Batch{}, fmt.Errorf("update batch %s: %w", id, err)
	}

	working.Revision = current.Revision + 1
	return working, nil
}
