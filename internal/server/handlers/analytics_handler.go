package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
)

// Analyzer answers analytics queries from the snapshot view.
type Analyzer interface {
	AnalyzeBatch(batchID string) (models.BatchAnalysis, error)
	Overview() models.Overview
}

// AnalyticsHandler serves the read-only analytics routes.
type AnalyticsHandler struct {
	analyzer Analyzer
	logger   *zap.Logger
}

func NewAnalyticsHandler(analyzer Analyzer, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{analyzer: analyzer, logger: logger}
}

func (h *AnalyticsHandler) BatchAnalysis(c *gin.Context) {
	analysis, err := h.analyzer.AnalyzeBatch(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzer.Overview())
}
