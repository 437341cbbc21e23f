package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/server/handlers"
)

// Handlers groups the route handlers. Webhook is nil when WhatsApp is not
// configured.
type Handlers struct {
	Batches   *handlers.BatchHandler
	Ledger    *handlers.LedgerHandler
	Analytics *handlers.AnalyticsHandler
	Webhook   *handlers.WebhookHandler
}

// ReadinessProbe reports whether the snapshot view has caught up with the store.
type ReadinessProbe interface {
	Ready() bool
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, probe ReadinessProbe, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		if probe != nil && !probe.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "syncing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		batches := api.Group("/batches")
		batches.GET("", h.Batches.List)
		batches.POST("", h.Batches.Create)
		batches.GET("/:id", h.Batches.Get)
		batches.DELETE("/:id", h.Batches.Delete)
		batches.POST("/:id/items", h.Batches.AddItem)
		batches.DELETE("/:id/items/:itemId", h.Batches.RemoveItem)
		batches.POST("/:id/finalize", h.Batches.Finalize)
		batches.POST("/:id/reopen", h.Batches.Reopen)
		batches.GET("/:id/analysis", h.Analytics.BatchAnalysis)

		api.GET("/sales", h.Ledger.ListSales)
		api.POST("/sales", h.Ledger.RecordSale)
		api.DELETE("/sales/:id", h.Ledger.DeleteSale)

		api.GET("/expenses", h.Ledger.ListExpenses)
		api.POST("/expenses", h.Ledger.CreateExpense)
		api.DELETE("/expenses/:id", h.Ledger.DeleteExpense)

		api.GET("/overview", h.Analytics.Overview)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Bool("webhook", h.Webhook != nil))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
