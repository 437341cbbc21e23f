// Package memory is an in-process ledger store used for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
)

type subscription struct {
	collection repository.Collection
	ch         chan repository.Snapshot
}

// Store keeps every collection in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	batches  map[string]models.Batch
	sales    map[string]models.Sale
	expenses map[string]models.Expense
	subs     map[int]*subscription
	nextSub  int
	newID    func() string
}

var _ repository.LedgerStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		batches:  make(map[string]models.Batch),
		sales:    make(map[string]models.Sale),
		expenses: make(map[string]models.Expense),
		subs:     make(map[int]*subscription),
		newID:    uuid.NewString,
	}
}

// CreateBatch stores a new open batch with no items.
func (s *Store) CreateBatch(_ context.Context, draft models.BatchDraft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	s.batches[id] = models.Batch{
		ID:        id,
		Name:      draft.Name,
		CreatedAt: draft.CreatedAt,
		Revision:  1,
	}
	s.notifyLocked(repository.CollectionBatches)
	return id, nil
}

// GetBatch returns a copy of the stored batch.
func (s *Store) GetBatch(_ context.Context, id string) (models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.batches[id]
	if !ok {
		return models.Batch{}, fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
	}
	return batch.Clone(), nil
}

// UpdateBatch applies a partial update, honoring ExpectedRevision.
func (s *Store) UpdateBatch(_ context.Context, id string, patch models.BatchPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, ok := s.batches[id]
	if !ok {
		return fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
	}
	if patch.ExpectedRevision > 0 && patch.ExpectedRevision != batch.Revision {
		return fmt.Errorf("update batch %s at revision %d: %w: %w", id, patch.ExpectedRevision, models.ErrPersistence, models.ErrConflict)
	}

	if patch.Items != nil {
		batch.Items = patch.Items.Clone()
	}
	switch {
	case patch.ClearFinalizedAt:
		batch.FinalizedAt = nil
	case patch.FinalizedAt != nil:
		finalized := *patch.FinalizedAt
		batch.FinalizedAt = &finalized
	}
	batch.Revision++

	s.batches[id] = batch
	s.notifyLocked(repository.CollectionBatches)
	return nil
}

// DeleteBatch removes the batch; sales referencing it are left untouched.
func (s *Store) DeleteBatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[id]; !ok {
		return fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
	}
	delete(s.batches, id)
	s.notifyLocked(repository.CollectionBatches)
	return nil
}

// CreateSale stores the sale under a fresh id.
func (s *Store) CreateSale(_ context.Context, sale models.Sale) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale.ID = s.newID()
	s.sales[sale.ID] = sale
	s.notifyLocked(repository.CollectionSales)
	return sale.ID, nil
}

// GetSale returns the stored sale.
func (s *Store) GetSale(_ context.Context, id string) (models.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return models.Sale{}, fmt.Errorf("sale %s: %w", id, models.ErrNotFound)
	}
	return sale, nil
}

// DeleteSale removes the sale.
func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[id]; !ok {
		return fmt.Errorf("sale %s: %w", id, models.ErrNotFound)
	}
	delete(s.sales, id)
	s.notifyLocked(repository.CollectionSales)
	return nil
}

// CreateExpense stores the expense under a fresh id.
func (s *Store) CreateExpense(_ context.Context, expense models.Expense) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense.ID = s.newID()
	s.expenses[expense.ID] = expense
	s.notifyLocked(repository.CollectionExpenses)
	return expense.ID, nil
}

// DeleteExpense removes the expense.
func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, models.ErrNotFound)
	}
	delete(s.expenses, id)
	s.notifyLocked(repository.CollectionExpenses)
	return nil
}

// Subscribe registers a snapshot listener. Slow listeners only ever see the
// latest snapshot: a pending, unread one is replaced.
func (s *Store) Subscribe(ctx context.Context, collection repository.Collection) (<-chan repository.Snapshot, error) {
	if !slices.Contains(repository.Collections, collection) {
		return nil, fmt.Errorf("subscribe %q: %w", collection, models.ErrInvalidInput)
	}

	sub := &subscription{collection: collection, ch: make(chan repository.Snapshot, 1)}

	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = sub
	sub.ch <- s.snapshotLocked(collection)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, key)
		close(sub.ch)
	}()

	return sub.ch, nil
}

func (s *Store) notifyLocked(collection repository.Collection) {
	var snap *repository.Snapshot
	for _, sub := range s.subs {
		if sub.collection != collection {
			continue
		}
		if snap == nil {
			current := s.snapshotLocked(collection)
			snap = &current
		}
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- *snap
	}
}

func (s *Store) snapshotLocked(collection repository.Collection) repository.Snapshot {
	snap := repository.Snapshot{Collection: collection}

	switch collection {
	case repository.CollectionBatches:
		snap.Batches = make([]models.Batch, 0, len(s.batches))
		for _, batch := range s.batches {
			snap.Batches = append(snap.Batches, batch.Clone())
		}
		slices.SortFunc(snap.Batches, func(a, b models.Batch) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	case repository.CollectionSales:
		snap.Sales = make([]models.Sale, 0, len(s.sales))
		for _, sale := range s.sales {
			snap.Sales = append(snap.Sales, sale)
		}
		slices.SortFunc(snap.Sales, func(a, b models.Sale) int {
			if c := b.Date.Compare(a.Date); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	case repository.CollectionExpenses:
		snap.Expenses = make([]models.Expense, 0, len(s.expenses))
		for _, expense := range s.expenses {
			snap.Expenses = append(snap.Expenses, expense)
		}
		slices.SortFunc(snap.Expenses, func(a, b models.Expense) int {
			if c := b.Date.Compare(a.Date); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}

	return snap
}
