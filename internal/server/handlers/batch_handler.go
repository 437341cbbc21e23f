package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// BatchCommands is the write side used by BatchHandler.
type BatchCommands interface {
	CreateBatch(ctx context.Context, name string) (models.Batch, error)
	GetBatch(ctx context.Context, id string) (models.Batch, error)
	DeleteBatch(ctx context.Context, id string) error
	AddItem(ctx context.Context, batchID string, draft models.ItemDraft) (models.Item, error)
	RemoveItem(ctx context.Context, batchID, itemID string) error
	FinalizeBatch(ctx context.Context, batchID, date string) (models.Batch, error)
	ReopenBatch(ctx context.Context, batchID string) (models.Batch, error)
}

// BatchLister reads batches from the snapshot view.
type BatchLister interface {
	Batches() []models.Batch
}

// BatchHandler serves the batch and item routes.
type BatchHandler struct {
	commands BatchCommands
	view     BatchLister
	logger   *zap.Logger
}

func NewBatchHandler(commands BatchCommands, view BatchLister, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{commands: commands, view: view, logger: logger}
}

// CreateBatchRequest is the body of POST /api/batches.
type CreateBatchRequest struct {
	Name string `json:"name" binding:"required"`
}

// FinalizeBatchRequest is the body of POST /api/batches/:id/finalize. An
// empty date means today.
type FinalizeBatchRequest struct {
	Date string `json:"date"`
}

// List returns the batches of the latest snapshot, newest first.
func (h *BatchHandler) List(c *gin.Context) {
	batches := h.view.Batches()
	if batches == nil {
		batches = []models.Batch{}
	}
	c.JSON(http.StatusOK, batches)
}

func (h *BatchHandler) Create(c *gin.Context) {
	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	batch, err := h.commands.CreateBatch(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// Get reads the batch from the store rather than the view.
func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.commands.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.commands.DeleteBatch(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BatchHandler) AddItem(c *gin.Context) {
	var draft models.ItemDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	item, err := h.commands.AddItem(c.Request.Context(), c.Param("id"), draft)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *BatchHandler) RemoveItem(c *gin.Context) {
	if err := h.commands.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BatchHandler) Finalize(c *gin.Context) {
	var req FinalizeBatchRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, h.logger, err)
			return
		}
	}

	batch, err := h.commands.FinalizeBatch(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) Reopen(c *gin.Context) {
	batch, err := h.commands.ReopenBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
