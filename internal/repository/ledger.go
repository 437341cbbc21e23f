// Package repository defines the boundary between the ledger core and the
// document store that persists batches, sales and expenses.
package repository

import (
	"context"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// Collection names a document collection of the ledger store.
type Collection string

const (
	// CollectionBatches is ordered by createdAt descending.
	CollectionBatches Collection = "batches"
	// CollectionSales is ordered by date descending.
	CollectionSales Collection = "sales"
	// CollectionExpenses is ordered by date descending.
	CollectionExpenses Collection = "expenses"
)

// Collections lists every collection a full view subscribes to.
var Collections = []Collection{CollectionBatches, CollectionSales, CollectionExpenses}

// Snapshot is the full, ordered content of one collection. Only the slice
// matching Collection is populated.
type Snapshot struct {
	Collection Collection
	Batches    []models.Batch
	Sales      []models.Sale
	Expenses   []models.Expense
}

// LedgerStore persists ledger documents and pushes collection snapshots.
// Failures are wrapped with models.ErrPersistence; absent documents yield
// models.ErrNotFound.
type LedgerStore interface {
	CreateBatch(ctx context.Context, draft models.BatchDraft) (string, error)
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	UpdateBatch(ctx context.Context, id string, patch models.BatchPatch) error
	DeleteBatch(ctx context.Context, id string) error

	CreateSale(ctx context.Context, sale models.Sale) (string, error)
	GetSale(ctx context.Context, id string) (models.Sale, error)
	DeleteSale(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, expense models.Expense) (string, error)
	DeleteExpense(ctx context.Context, id string) error

	Subscriber
}

// Subscriber streams full collection snapshots. The current content is sent
// first; the channel closes once ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, collection Collection) (<-chan Snapshot, error)
}
