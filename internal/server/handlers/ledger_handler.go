package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/service/expenses"
	"github.com/mamadbah2/batchbook/internal/service/sales"
)

// SaleRecorder is the sale engine as seen by the HTTP layer.
type SaleRecorder interface {
	RecordSale(ctx context.Context, req sales.RecordSaleRequest) (models.Sale, error)
	DeleteSaleByID(ctx context.Context, saleID string) error
}

// ExpenseRecorder is the expense service as seen by the HTTP layer.
type ExpenseRecorder interface {
	CreateExpense(ctx context.Context, draft expenses.ExpenseDraft) (models.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// LedgerLister reads sales and expenses from the snapshot view.
type LedgerLister interface {
	Sales() []models.Sale
	Expenses() []models.Expense
}

// LedgerHandler serves the sale and expense routes.
type LedgerHandler struct {
	sales    SaleRecorder
	expenses ExpenseRecorder
	view     LedgerLister
	logger   *zap.Logger
}

func NewLedgerHandler(sales SaleRecorder, expenses ExpenseRecorder, view LedgerLister, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{sales: sales, expenses: expenses, view: view, logger: logger}
}

// ListSales returns sales newest first, optionally filtered by ?batchId=.
func (h *LedgerHandler) ListSales(c *gin.Context) {
	batchID := c.Query("batchId")
	out := []models.Sale{}
	for _, sale := range h.view.Sales() {
		if batchID == "" || sale.BatchID == batchID {
			out = append(out, sale)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req sales.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	sale, err := h.sales.RecordSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *LedgerHandler) DeleteSale(c *gin.Context) {
	if err := h.sales.DeleteSaleByID(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListExpenses returns expenses newest first; ?batchId= filters by batch and
// ?general=true keeps unattributed ones only.
func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	batchID := c.Query("batchId")
	generalOnly := c.Query("general") == "true"

	out := []models.Expense{}
	for _, expense := range h.view.Expenses() {
		switch {
		case generalOnly && !expense.IsGeneral():
			continue
		case batchID != "" && expense.BatchID != batchID:
			continue
		}
		out = append(out, expense)
	}
	c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) CreateExpense(c *gin.Context) {
	var draft expenses.ExpenseDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	expense, err := h.expenses.CreateExpense(c.Request.Context(), draft)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *LedgerHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenses.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
