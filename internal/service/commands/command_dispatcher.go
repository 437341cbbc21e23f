package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/service/analytics"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// HelpText lists the supported chat commands.
const HelpText = "Commands:\n/batches - open batches and progress\n/stock <batch> - remaining stock per item\n/report <batch> - batch analysis"

// BatchFinder resolves a batch reference typed in chat.
type BatchFinder interface {
	FindBatch(ref string) (models.Batch, bool)
}

// ReportingAdapter defines the analytics functions required by the dispatcher.
type ReportingAdapter interface {
	AnalyzeBatch(batchID string) (models.BatchAnalysis, error)
	AnalyzeOpen() []models.BatchAnalysis
}

// Dispatcher answers parsed chat commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface. Every command is a read-only
// query over the latest snapshot.
type Service struct {
	batches   BatchFinder
	reporting ReportingAdapter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(batches BatchFinder, reporting ReportingAdapter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{batches: batches, reporting: reporting, logger: logger}
}

// HandleCommand renders the reply for cmd. Unknown commands get the help text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandBatches:
		return analytics.RenderBatchList(s.reporting.AnalyzeOpen()), nil
	case models.CommandStock:
		batch, err := s.resolve(cmd)
		if err != nil {
			return "", err
		}
		return analytics.RenderStock(batch), nil
	case models.CommandReport:
		batch, err := s.resolve(cmd)
		if err != nil {
			return "", err
		}
		analysis, err := s.reporting.AnalyzeBatch(batch.ID)
		if err != nil {
			return "", err
		}
		return analytics.RenderReport(analysis), nil
	default:
		return HelpText, nil
	}
}

func (s *Service) resolve(cmd models.Command) (models.Batch, error) {
	ref := cmd.Target()
	if ref == "" {
		return models.Batch{}, fmt.Errorf("%w: /%s needs a batch name or id", ErrInvalidArguments, cmd.Type)
	}
	batch, ok := s.batches.FindBatch(ref)
	if !ok {
		return models.Batch{}, fmt.Errorf("batch %q: %w", ref, models.ErrNotFound)
	}
	return batch, nil
}
