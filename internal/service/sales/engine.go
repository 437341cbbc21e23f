// Package sales records and deletes sales together with their stock effect.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/repository"
	"github.com/mamadbah2/batchbook/internal/service/lifecycle"
	"github.com/mamadbah2/batchbook/internal/service/stock"
)

// RecordSaleRequest is the caller input for a sale.
type RecordSaleRequest struct {
	BatchID        string          `json:"batchId" binding:"required"`
	ItemID         string          `json:"itemId" binding:"required"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	ShippingCost   decimal.Decimal `json:"shippingCost"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Source         string          `json:"source"`
	IsReseller     bool            `json:"isReseller"`
	// SaleDate is a calendar date (2006-01-02); empty means today.
	SaleDate string `json:"saleDate"`
}

// Engine spans the sale record and the item stock it consumes. The two writes
// are not atomic: a failure between them is logged and left for manual repair.
type Engine struct {
	store  repository.LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine wires a sale engine. A nil clock means time.Now.
func NewEngine(store repository.LedgerStore, now func() time.Time, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{store: store, logger: logger, now: now}
}

// RecordSale validates the sale against the latest batch state, stores it and
// decrements stock, finalizing the batch when it sells out. Nothing is written
// when validation fails.
func (e *Engine) RecordSale(ctx context.Context, req RecordSaleRequest) (models.Sale, error) {
	source, err := validate(req)
	if err != nil {
		return models.Sale{}, err
	}

	now := e.now()
	date, err := models.StampDate(req.SaleDate, now)
	if err != nil {
		return models.Sale{}, err
	}

	current, err := e.store.GetBatch(ctx, req.BatchID)
	if err != nil {
		return models.Sale{}, err
	}

	working := current.Clone()
	item, ok := working.Items.Get(req.ItemID)
	if !ok {
		return models.Sale{}, fmt.Errorf("item %s in batch %s: %w", req.ItemID, req.BatchID, models.ErrNotFound)
	}
	if _, err := stock.ApplySale(&working, req.ItemID, req.Quantity); err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		BatchID:            current.ID,
		BatchName:          current.Name,
		ItemID:             item.ID,
		ProductName:        item.Product,
		Variant:            item.Variant,
		Quantity:           req.Quantity,
		UnitPrice:          req.UnitPrice,
		CostPerUnitAtSale:  item.CostPerUnit,
		ShippingCostAtSale: req.ShippingCost,
		NetCashIn:          models.NetCashIn(req.UnitPrice, req.Quantity, req.ShippingCharge, req.ShippingCost),
		Source:             source,
		IsReseller:         req.IsReseller,
		Date:               date,
	}

	sale.ID, err = e.store.CreateSale(ctx, sale)
	if err != nil {
		return models.Sale{}, fmt.Errorf("create sale: %w", err)
	}

	patch := models.BatchPatch{Items: &working.Items, ExpectedRevision: current.Revision}
	finalized := lifecycle.AutoFinalize(&working, now)
	if finalized {
		patch.FinalizedAt = working.FinalizedAt
	}

	if err := e.store.UpdateBatch(ctx, current.ID, patch); err != nil {
		e.logger.Error("sale stored but stock not decremented",
			zap.String("sale_id", sale.ID),
			zap.String("batch_id", current.ID),
			zap.String("item_id", item.ID),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return sale, fmt.Errorf("decrement stock for sale %s: %w", sale.ID, err)
	}

	e.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("batch_id", current.ID),
		zap.String("item_id", item.ID),
		zap.Int("quantity", req.Quantity),
		zap.String("net_cash_in", sale.NetCashIn.String()))
	if finalized {
		e.logger.Info("batch sold out and finalized", zap.String("batch_id", current.ID))
	}

	return sale, nil
}

// DeleteSaleByID loads the sale and deletes it.
func (e *Engine) DeleteSaleByID(ctx context.Context, saleID string) error {
	sale, err := e.store.GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	return e.DeleteSale(ctx, sale)
}

// DeleteSale removes the sale, then gives its units back to the item. When the
// batch or the item is gone the restoration is skipped and the deletion still
// succeeds.
func (e *Engine) DeleteSale(ctx context.Context, sale models.Sale) error {
	if err := e.store.DeleteSale(ctx, sale.ID); err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}

	if sale.BatchID == "" || sale.ItemID == "" {
		return nil
	}

	current, err := e.store.GetBatch(ctx, sale.BatchID)
	if errors.Is(err, models.ErrNotFound) {
		e.logger.Debug("sale deleted from a removed batch", zap.String("sale_id", sale.ID), zap.String("batch_id", sale.BatchID))
		return nil
	}
	if err != nil {
		return e.restoreFailed(sale, err)
	}

	working := current.Clone()
	restored, err := stock.ReverseSale(&working, sale.ItemID, sale.Quantity)
	if err != nil {
		return e.restoreFailed(sale, err)
	}
	if !restored {
		e.logger.Debug("sale deleted for a removed item", zap.String("sale_id", sale.ID), zap.String("item_id", sale.ItemID))
		return nil
	}

	patch := models.BatchPatch{Items: &working.Items, ExpectedRevision: current.Revision}
	if err := e.store.UpdateBatch(ctx, current.ID, patch); err != nil {
		return e.restoreFailed(sale, err)
	}

	e.logger.Info("sale deleted and stock restored",
		zap.String("sale_id", sale.ID),
		zap.String("batch_id", sale.BatchID),
		zap.String("item_id", sale.ItemID),
		zap.Int("quantity", sale.Quantity))
	return nil
}

func (e *Engine) restoreFailed(sale models.Sale, err error) error {
	e.logger.Error("sale deleted but stock not restored",
		zap.String("sale_id", sale.ID),
		zap.String("batch_id", sale.BatchID),
		zap.String("item_id", sale.ItemID),
		zap.Int("quantity", sale.Quantity),
		zap.Error(err))
	return fmt.Errorf("restore stock for sale %s: %w", sale.ID, err)
}

func validate(req RecordSaleRequest) (models.SaleSource, error) {
	switch {
	case strings.TrimSpace(req.BatchID) == "":
		return "", fmt.Errorf("%w: batch id is required", models.ErrInvalidInput)
	case strings.TrimSpace(req.ItemID) == "":
		return "", fmt.Errorf("%w: item id is required", models.ErrInvalidInput)
	case req.Quantity < 1:
		return "", fmt.Errorf("%w: quantity must be at least 1", models.ErrInvalidInput)
	case req.UnitPrice.IsNegative():
		return "", fmt.Errorf("%w: unit price cannot be negative", models.ErrInvalidInput)
	case req.ShippingCost.IsNegative():
		return "", fmt.Errorf("%w: shipping cost cannot be negative", models.ErrInvalidInput)
	case req.ShippingCharge.IsNegative():
		return "", fmt.Errorf("%w: shipping charge cannot be negative", models.ErrInvalidInput)
	}
	return models.ParseSaleSource(req.Source)
}
