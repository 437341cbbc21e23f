package analytics

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/service/snapshot"
)

// LedgerReader is the read side of the snapshot view.
type LedgerReader interface {
	Ledger() snapshot.Ledger
}

// Service answers analytics queries from the latest observed snapshot.
type Service struct {
	view   LedgerReader
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires an analytics service. A nil clock means time.Now.
func NewService(view LedgerReader, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{view: view, logger: logger, now: now}
}

// AnalyzeBatch returns the analysis of the batch with the given id.
func (s *Service) AnalyzeBatch(batchID string) (models.BatchAnalysis, error) {
	ledger := s.view.Ledger()
	for _, batch := range ledger.Batches {
		if batch.ID == batchID {
			return Analyze(batch, ledger.Sales, ledger.Expenses, s.now()), nil
		}
	}
	return models.BatchAnalysis{}, fmt.Errorf("batch %s: %w", batchID, models.ErrNotFound)
}

// AnalyzeOpen analyzes every open batch in view order.
func (s *Service) AnalyzeOpen() []models.BatchAnalysis {
	ledger := s.view.Ledger()
	now := s.now()

	var out []models.BatchAnalysis
	for _, batch := range ledger.Batches {
		if batch.IsFinalized() {
			continue
		}
		out = append(out, Analyze(batch, ledger.Sales, ledger.Expenses, now))
	}
	return out
}

func (s *Service) Overview() models.Overview {
	return Overview(s.view.Ledger())
}

// Digest renders the periodic summary of open batches.
func (s *Service) Digest() string {
	analyses := s.AnalyzeOpen()
	s.logger.Debug("digest rendered", zap.Int("open_batches", len(analyses)))
	return RenderDigest(s.now(), analyses, s.Overview())
}
