// Package stock keeps an item's current stock equal to its initial stock minus
// the quantities of the sales recorded against it. Stock only moves through
// AddItem, ApplySale, ReverseSale and RemoveItem.
package stock

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// AddItem appends a fully stocked item to an open batch. newID assigns the item id.
func AddItem(batch *models.Batch, draft models.ItemDraft, newID func() string) (models.Item, error) {
	if batch.IsFinalized() {
		return models.Item{}, fmt.Errorf("add item to batch %s: %w", batch.ID, models.ErrBatchClosed)
	}

	product := strings.TrimSpace(draft.Product)
	switch {
	case product == "":
		return models.Item{}, fmt.Errorf("%w: product is required", models.ErrInvalidInput)
	case !draft.CostPerUnit.IsPositive():
		return models.Item{}, fmt.Errorf("%w: cost per unit must be positive", models.ErrInvalidInput)
	case draft.InitialStock <= 0:
		return models.Item{}, fmt.Errorf("%w: initial stock must be positive", models.ErrInvalidInput)
	}

	variant := strings.TrimSpace(draft.Variant)
	if variant == "" {
		variant = models.DefaultVariant
	}

	item := models.Item{
		ID:           newID(),
		Product:      product,
		Variant:      variant,
		CostPerUnit:  draft.CostPerUnit,
		InitialStock: draft.InitialStock,
		CurrentStock: draft.InitialStock,
	}
	batch.Items.Put(item)
	return item, nil
}

// RemoveItem drops the item whatever its stock. Sales referencing it keep
// their own snapshots and stay valid.
func RemoveItem(batch *models.Batch, itemID string) error {
	if !batch.Items.Remove(itemID) {
		return fmt.Errorf("item %s in batch %s: %w", itemID, batch.ID, models.ErrNotFound)
	}
	return nil
}

// CheckSale validates a sale of quantity units against the item without changing it.
func CheckSale(item models.Item, quantity int) error {
	switch {
	case quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", models.ErrInvalidInput)
	case item.CurrentStock <= 0:
		return fmt.Errorf("%s %s: %w", item.Product, item.Variant, models.ErrOutOfStock)
	case item.CurrentStock < quantity:
		return &models.InsufficientStockError{Remaining: item.CurrentStock, Requested: quantity}
	}
	return nil
}

// ApplySale decrements the item's stock. The batch is untouched on error.
func ApplySale(batch *models.Batch, itemID string, quantity int) (models.Item, error) {
	item, ok := batch.Items.Get(itemID)
	if !ok {
		return models.Item{}, fmt.Errorf("item %s in batch %s: %w", itemID, batch.ID, models.ErrNotFound)
	}
	if err := CheckSale(item, quantity); err != nil {
		return models.Item{}, err
	}

	item.CurrentStock -= quantity
	batch.Items.Put(item)
	return item, nil
}

// ReverseSale gives quantity units back to the item. It reports false when the
// item no longer exists, in which case there is nothing to restore. Restoring
// past the initial stock is a caller fault: ErrStockOverflow is returned and
// nothing changes.
func ReverseSale(batch *models.Batch, itemID string, quantity int) (bool, error) {
	item, ok := batch.Items.Get(itemID)
	if !ok {
		return false, nil
	}
	if quantity < 1 {
		return false, fmt.Errorf("%w: quantity must be at least 1", models.ErrInvalidInput)
	}
	if item.CurrentStock+quantity > item.InitialStock {
		return false, fmt.Errorf("item %s: %d + %d > %d: %w",
			itemID, item.CurrentStock, quantity, item.InitialStock, models.ErrStockOverflow)
	}

	item.CurrentStock += quantity
	batch.Items.Put(item)
	return true, nil
}
