package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/config"
	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/service/whatsapp"
)

const digestTimeout = 2 * time.Minute

// DigestSource renders the digest and the analyses behind it.
type DigestSource interface {
	Digest() string
	AnalyzeOpen() []models.BatchAnalysis
}

// DigestExporter stores digest rows outside the ledger.
type DigestExporter interface {
	Export(ctx context.Context, day time.Time, analyses []models.BatchAnalysis) error
}

// Scheduler manages scheduled tasks. Messaging and exporter are optional; a
// nil one is skipped.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	recipient string
	reporting DigestSource
	messaging whatsapp.MessagingService
	exporter  DigestExporter
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler running in the configured timezone.
func NewScheduler(cfg config.Config, reporting DigestSource, messaging whatsapp.MessagingService, exporter DigestExporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := cfg.Location()
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		schedule:  cfg.Digest.CronSchedule,
		recipient: cfg.WhatsApp.DigestRecipient,
		reporting: reporting,
		messaging: messaging,
		exporter:  exporter,
		now:       func() time.Time { return time.Now().In(loc) },
		logger:    logger,
	}
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDigest); err != nil {
		return fmt.Errorf("schedule digest %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("digest job panicked", zap.Any("panic", r))
		}
	}()

	s.RunDigest(ctx)
}

// RunDigest sends the digest over WhatsApp and exports one sheet row per open
// batch. Failures are logged and never stop the other channel.
func (s *Scheduler) RunDigest(ctx context.Context) {
	s.logger.Info("generating digest")

	if s.messaging != nil && s.recipient != "" {
		req := models.OutboundMessageRequest{To: s.recipient, Message: s.reporting.Digest()}
		if err := s.messaging.SendOutbound(ctx, req); err != nil {
			s.logger.Error("failed to send digest", zap.Error(err))
		} else {
			s.logger.Info("digest sent", zap.String("to", s.recipient))
		}
	}

	if s.exporter != nil {
		if err := s.exporter.Export(ctx, s.now(), s.reporting.AnalyzeOpen()); err != nil {
			s.logger.Error("failed to export digest", zap.Error(err))
		}
	}
}
