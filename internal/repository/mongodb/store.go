package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
)

const defaultPollInterval = 5 * time.Second

// LedgerStore implements repository.LedgerStore on MongoDB. Batches embed their
// items; sales and expenses live in their own collections.
type LedgerStore struct {
	client       *mongo.Client
	db           *mongo.Database
	logger       *zap.Logger
	pollInterval time.Duration
}

var _ repository.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore connects, pings and prepares indexes.
func NewLedgerStore(ctx context.Context, uri, dbName string, logger *zap.Logger) (*LedgerStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := NewLedgerStoreFromClient(client, dbName, logger)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// NewLedgerStoreFromClient wraps an already connected client.
func NewLedgerStoreFromClient(client *mongo.Client, dbName string, logger *zap.Logger) *LedgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerStore{
		client:       client,
		db:           client.Database(dbName),
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// SetPollInterval changes how often snapshots are re-read when change streams
// are unavailable (standalone servers).
func (s *LedgerStore) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		s.pollInterval = interval
	}
}

// EnsureIndexes creates the indexes backing the snapshot sort orders.
func (s *LedgerStore) EnsureIndexes(ctx context.Context) error {
	specs := map[repository.Collection][]mongo.IndexModel{
		repository.CollectionBatches: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		repository.CollectionSales: {
			{Keys: bson.D{{Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "batchId", Value: 1}}},
		},
		repository.CollectionExpenses: {
			{Keys: bson.D{{Key: "date", Value: -1}}},
		},
	}

	for collection, indexes := range specs {
		if _, err := s.collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *LedgerStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *LedgerStore) collection(name repository.Collection) *mongo.Collection {
	return s.db.Collection(string(name))
}

// CreateBatch inserts an open batch with no items at revision 1.
func (s *LedgerStore) CreateBatch(ctx context.Context, draft models.BatchDraft) (string, error) {
	doc := batchDocument{
		Name:      draft.Name,
		CreatedAt: draft.CreatedAt,
		Items:     []itemDocument{},
		Revision:  1,
	}

	res, err := s.collection(repository.CollectionBatches).InsertOne(ctx, doc)
	if err != nil {
		return "", persistenceError("insert batch", err)
	}
	return insertedID(res), nil
}

// GetBatch loads one batch.
func (s *LedgerStore) GetBatch(ctx context.Context, id string) (models.Batch, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Batch{}, fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
	}

	var doc batchDocument
	err = s.collection(repository.CollectionBatches).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Batch{}, fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Batch{}, persistenceError("find batch", err)
	}

	batch, err := doc.toModel()
	if err != nil {
		return models.Batch{}, persistenceError("decode batch", err)
	}
	return batch, nil
}

// UpdateBatch applies a partial update. With ExpectedRevision set, the write only
// matches the document at that revision.
func (s *LedgerStore) UpdateBatch(ctx context.Context, id string, patch models.BatchPatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
	}

	filter := bson.M{"_id": oid}
	if patch.ExpectedRevision > 0 {
		filter["revision"] = patch.ExpectedRevision
	}

	set := bson.M{}
	unset := bson.M{}
	if patch.Items != nil {
		items, err := toItemDocuments(*patch.Items)
		if err != nil {
			return fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
		}
		set["items"] = items
	}
	switch {
	case patch.ClearFinalizedAt:
		unset["finalizedAt"] = ""
	case patch.FinalizedAt != nil:
		set["finalizedAt"] = *patch.FinalizedAt
	}

	update := bson.M{"$inc": bson.M{"revision": 1}}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.collection(repository.CollectionBatches).UpdateOne(ctx, filter, update)
	if err != nil {
		return persistenceError("update batch", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if patch.ExpectedRevision > 0 {
		count, err := s.collection(repository.CollectionBatches).CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return persistenceError("count batch", err)
		}
		if count > 0 {
			return fmt.Errorf("update batch %s at revision %d: %w: %w", id, patch.ExpectedRevision, models.ErrPersistence, models.ErrConflict)
		}
	}
	return fmt.Errorf("batch %s: %w", id, models.ErrNotFound)
}

// DeleteBatch removes the batch document only.
func (s *LedgerStore) DeleteBatch(ctx context.Context, id string) error {
	return s.deleteByID(ctx, repository.CollectionBatches, id)
}

// CreateSale inserts a sale document.
func (s *LedgerStore) CreateSale(ctx context.Context, sale models.Sale) (string, error) {
	doc, err := newSaleDocument(sale)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}

	res, err := s.collection(repository.CollectionSales).InsertOne(ctx, doc)
	if err != nil {
		return "", persistenceError("insert sale", err)
	}
	return insertedID(res), nil
}

// GetSale loads one sale.
func (s *LedgerStore) GetSale(ctx context.Context, id string) (models.Sale, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Sale{}, fmt.Errorf("sale %s: %w", id, models.ErrNotFound)
	}

	var doc saleDocument
	err = s.collection(repository.CollectionSales).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Sale{}, fmt.Errorf("sale %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Sale{}, persistenceError("find sale", err)
	}

	sale, err := doc.toModel()
	if err != nil {
		return models.Sale{}, persistenceError("decode sale", err)
	}
	return sale, nil
}

// DeleteSale removes a sale document.
func (s *LedgerStore) DeleteSale(ctx context.Context, id string) error {
	return s.deleteByID(ctx, repository.CollectionSales, id)
}

// CreateExpense inserts an expense document.
func (s *LedgerStore) CreateExpense(ctx context.Context, expense models.Expense) (string, error) {
	doc, err := newExpenseDocument(expense)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrInvalidInput, err)
	}

	res, err := s.collection(repository.CollectionExpenses).InsertOne(ctx, doc)
	if err != nil {
		return "", persistenceError("insert expense", err)
	}
	return insertedID(res), nil
}

// DeleteExpense removes an expense document.
func (s *LedgerStore) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteByID(ctx, repository.CollectionExpenses, id)
}

func (s *LedgerStore) deleteByID(ctx context.Context, collection repository.Collection, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%s %s: %w", collection, id, models.ErrNotFound)
	}

	res, err := s.collection(collection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return persistenceError("delete from "+string(collection), err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, models.ErrNotFound)
	}
	return nil
}

func insertedID(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(res.InsertedID)
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrPersistence, err)
}
