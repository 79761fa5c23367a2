package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the payload read so a bad actor cannot buffer
// arbitrary data through the unauthenticated endpoint.
const maxWebhookBody = 1 << 16

// StripeWebhook receives provider deliveries. Always answer 200 for applied
// or duplicate events; non-2xx makes Stripe retry, which we only want for
// genuine processing failures.
func (h *HandlerBundle) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.Webhooks.HandleStripeEvent(c.Request.Context(), payload, signature); err != nil {
		getLogger(c).Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
