package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
)

var sortFields = map[repository.Collection]string{
	repository.CollectionBatches:  "createdAt",
	repository.CollectionSales:    "date",
	repository.CollectionExpenses: "date",
}

// Subscribe emits the full collection now and again after every change. It
// relies on change streams and falls back to polling when the deployment does
// not support them.
func (s *LedgerStore) Subscribe(ctx context.Context, collection repository.Collection) (<-chan repository.Snapshot, error) {
	if _, ok := sortFields[collection]; !ok {
		return nil, fmt.Errorf("subscribe %q: %w", collection, models.ErrInvalidInput)
	}

	stream, err := s.collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		s.logger.Warn("change stream unavailable, polling instead",
			zap.String("collection", string(collection)),
			zap.Duration("interval", s.pollInterval),
			zap.Error(err))
		stream = nil
	}

	initial, err := s.loadSnapshot(ctx, collection)
	if err != nil {
		if stream != nil {
			_ = stream.Close(context.Background())
		}
		return nil, err
	}

	ch := make(chan repository.Snapshot, 1)
	ch <- initial

	go s.pump(ctx, collection, stream, ch)
	return ch, nil
}

func (s *LedgerStore) pump(ctx context.Context, collection repository.Collection, stream *mongo.ChangeStream, ch chan repository.Snapshot) {
	defer close(ch)

	if stream != nil {
		for stream.Next(ctx) {
			s.refresh(ctx, collection, ch)
		}
		streamErr := stream.Err()
		_ = stream.Close(context.Background())
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("change stream ended, polling instead",
			zap.String("collection", string(collection)), zap.Error(streamErr))
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx, collection, ch)
		}
	}
}

// refresh re-reads the collection and replaces any snapshot still unread.
func (s *LedgerStore) refresh(ctx context.Context, collection repository.Collection, ch chan repository.Snapshot) {
	snap, err := s.loadSnapshot(ctx, collection)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("snapshot reload failed", zap.String("collection", string(collection)), zap.Error(err))
		}
		return
	}

	select {
	case <-ch:
	default:
	}
	ch <- snap
}

func (s *LedgerStore) loadSnapshot(ctx context.Context, collection repository.Collection) (repository.Snapshot, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: sortFields[collection], Value: -1},
		{Key: "_id", Value: 1},
	})

	cursor, err := s.collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return repository.Snapshot{}, persistenceError("query "+string(collection), err)
	}
	defer cursor.Close(ctx)

	snap := repository.Snapshot{Collection: collection}
	switch collection {
	case repository.CollectionBatches:
		var docs []batchDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return repository.Snapshot{}, persistenceError("decode batches", err)
		}
		snap.Batches = make([]models.Batch, 0, len(docs))
		for _, doc := range docs {
			batch, err := doc.toModel()
			if err != nil {
				return repository.Snapshot{}, persistenceError("decode batches", err)
			}
			snap.Batches = append(snap.Batches, batch)
		}
	case repository.CollectionSales:
		var docs []saleDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return repository.Snapshot{}, persistenceError("decode sales", err)
		}
		snap.Sales = make([]models.Sale, 0, len(docs))
		for _, doc := range docs {
			sale, err := doc.toModel()
			if err != nil {
				return repository.Snapshot{}, persistenceError("decode sales", err)
			}
			snap.Sales = append(snap.Sales, sale)
		}
	case repository.CollectionExpenses:
		var docs []expenseDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return repository.Snapshot{}, persistenceError("decode expenses", err)
		}
		snap.Expenses = make([]models.Expense, 0, len(docs))
		for _, doc := range docs {
			expense, err := doc.toModel()
			if err != nil {
				return repository.Snapshot{}, persistenceError("decode expenses", err)
			}
			snap.Expenses = append(snap.Expenses, expense)
		}
	}

	return snap, nil
}
