// Package snapshot keeps an in-memory, read-only copy of the ledger current
// with the store's collection subscriptions.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
)

// Ledger is a point-in-time copy of every collection.
type Ledger struct {
	Batches  []models.Batch
	Sales    []models.Sale
	Expenses []models.Expense
}

// View holds the latest snapshot of each collection. Every snapshot replaces
// the previous content wholesale. Readers always receive copies.
type View struct {
	mu       sync.RWMutex
	batches  []models.Batch
	sales    []models.Sale
	expenses []models.Expense
	seen     map[repository.Collection]bool
	logger   *zap.Logger
}

func NewView(logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{seen: make(map[repository.Collection]bool), logger: logger}
}

// Run subscribes to every collection and applies snapshots until ctx ends or
// a subscription closes. Subscription errors are returned before any
// snapshot is applied.
func (v *View) Run(ctx context.Context, sub repository.Subscriber) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	streams := make([]<-chan repository.Snapshot, 0, len(repository.Collections))
	for _, collection := range repository.Collections {
		ch, err := sub.Subscribe(ctx, collection)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", collection, err)
		}
		streams = append(streams, ch)
	}

	var wg sync.WaitGroup
	for _, ch := range streams {
		wg.Add(1)
		go func(ch <-chan repository.Snapshot) {
			defer wg.Done()
			defer cancel()
			for snap := range ch {
				v.Apply(snap)
			}
		}(ch)
	}

	wg.Wait()
	return ctx.Err()
}

// Apply replaces the collection named by the snapshot.
func (v *View) Apply(snap repository.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch snap.Collection {
	case repository.CollectionBatches:
		v.batches = cloneBatches(snap.Batches)
	case repository.CollectionSales:
		v.sales = append([]models.Sale(nil), snap.Sales...)
	case repository.CollectionExpenses:
		v.expenses = append([]models.Expense(nil), snap.Expenses...)
	default:
		v.logger.Warn("ignoring snapshot of unknown collection", zap.String("collection", string(snap.Collection)))
		return
	}
	v.seen[snap.Collection] = true

	v.logger.Debug("snapshot applied",
		zap.String("collection", string(snap.Collection)),
		zap.Int("batches", len(v.batches)),
		zap.Int("sales", len(v.sales)),
		zap.Int("expenses", len(v.expenses)))
}

// Ready reports whether every collection has delivered at least one snapshot.
func (v *View) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, collection := range repository.Collections {
		if !v.seen[collection] {
			return false
		}
	}
	return true
}

func (v *View) Ledger() Ledger {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Ledger{
		Batches:  cloneBatches(v.batches),
		Sales:    append([]models.Sale(nil), v.sales...),
		Expenses: append([]models.Expense(nil), v.expenses...),
	}
}

func (v *View) Batches() []models.Batch {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneBatches(v.batches)
}

func (v *View) Sales() []models.Sale {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.Sale(nil), v.sales...)
}

func (v *View) Expenses() []models.Expense {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.Expense(nil), v.expenses...)
}

// Batch looks a batch up by id.
func (v *View) Batch(id string) (models.Batch, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, batch := range v.batches {
		if batch.ID == id {
			return batch.Clone(), true
		}
	}
	return models.Batch{}, false
}

// FindBatch resolves a batch by id or, failing that, by case-insensitive name.
// The most recently created match wins.
func (v *View) FindBatch(ref string) (models.Batch, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Batch{}, false
	}
	if batch, ok := v.Batch(ref); ok {
		return batch, true
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, batch := range v.batches {
		if strings.EqualFold(batch.Name, ref) {
			return batch.Clone(), true
		}
	}
	return models.Batch{}, false
}

func cloneBatches(in []models.Batch) []models.Batch {
	if in == nil {
		return nil
	}
	out := make([]models.Batch, len(in))
	for i, batch := range in {
		out[i] = batch.Clone()
	}
	return out
}
