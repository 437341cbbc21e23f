package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchbook/internal/domain/models"
	"github.com/mamadbah2/batchbook/internal/service/whatsapp"
)

// WebhookHandler serves the WhatsApp callback routes and the operator send route.
type WebhookHandler struct {
	messaging whatsapp.MessagingService
	logger    *zap.Logger
}

func NewWebhookHandler(messaging whatsapp.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{messaging: messaging, logger: logger}
}

// Verify echoes the hub challenge as plain text, which is what the Cloud API
// expects; a rejected token gets the usual error body.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.messaging.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification rejected", zap.String("mode", c.Query("hub.mode")), zap.Error(err))
		c.JSON(http.StatusForbidden, ErrorResponse{Error: CodeVerification, Message: err.Error()})
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive answers the chat commands of an inbound callback. A non-2xx makes
// the Cloud API redeliver, so only reply failures are reported.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	if err := h.messaging.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.respondMessagingError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator-written text through the bot.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	if err := h.messaging.SendOutbound(c.Request.Context(), req); err != nil {
		h.respondMessagingError(c, err)
		return
	}
	h.logger.Info("outbound message sent", zap.String("to", req.To))
	c.Status(http.StatusAccepted)
}

// respondMessagingError keeps domain error codes and reports everything else
// as an upstream Cloud API failure.
func (h *WebhookHandler) respondMessagingError(c *gin.Context, err error) {
	if _, code := statusFor(err); code != CodeInternal {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Error("whatsapp delivery failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadGateway, ErrorResponse{Error: CodeMessaging, Message: "unable to deliver whatsapp message"})
}
