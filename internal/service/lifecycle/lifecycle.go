// Package lifecycle moves batches between the open and finalized states.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// Finalize closes an open batch on the given calendar date, stamped with the
// time of day of now. The creation day itself is accepted; finalizedAt never
// precedes createdAt.
func Finalize(batch *models.Batch, date string, now time.Time) error {
	if batch.IsFinalized() {
		return fmt.Errorf("finalize batch %s: already finalized: %w", batch.ID, models.ErrBatchClosed)
	}

	finalizedAt, err := models.StampDate(date, now)
	if err != nil {
		return err
	}
	finalDay := finalizedAt.Format(models.DateLayout)
	createdDay := batch.CreatedAt.In(finalizedAt.Location()).Format(models.DateLayout)
	if finalDay < createdDay {
		return fmt.Errorf("%w: finalization day %s precedes creation day %s", models.ErrInvalidInput, finalDay, createdDay)
	}
	if finalizedAt.Before(batch.CreatedAt) {
		finalizedAt = batch.CreatedAt
	}

	batch.FinalizedAt = &finalizedAt
	return nil
}

// Reopen clears the finalization marker and reports whether it was set.
func Reopen(batch *models.Batch) bool {
	if !batch.IsFinalized() {
		return false
	}
	batch.FinalizedAt = nil
	return true
}

// ShouldAutoFinalize reports whether an open batch has sold out: every item,
// including ones added after earlier sales, sits at zero stock.
func ShouldAutoFinalize(batch models.Batch) bool {
	if batch.IsFinalized() || batch.Items.Len() == 0 {
		return false
	}
	for _, item := range batch.Items.Ordered() {
		if item.CurrentStock != 0 {
			return false
		}
	}
	return true
}

// AutoFinalize stamps the batch finalized at now when it has sold out.
func AutoFinalize(batch *models.Batch, now time.Time) bool {
	if !ShouldAutoFinalize(*batch) {
		return false
	}
	batch.FinalizedAt = &now
	return true
}
