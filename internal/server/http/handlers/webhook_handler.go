package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polarisedu/coursepay/internal/server/http/dto"
)

// Provider event names accepted by the webhook. Both spellings have been
// observed in production traffic.
const (
	eventStatusChanged       = "PAYMENT_STATUS_CHANGED"
	eventStatusChangedLegacy = "payment.status.changed"
)

// PaymentWebhook handles POST /api/payment/webhook. The provider retries on
// non-2xx, so every outcome that needs no retry answers 200.
func PaymentWebhook(facade WebhookFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.WebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		if req.Event != eventStatusChanged && req.Event != eventStatusChangedLegacy {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		outcome, _, err := facade.ApplyPaymentEvent(c.Request.Context(), req.PaymentEvent())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process payment event"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "outcome": string(outcome)})
	}
}
