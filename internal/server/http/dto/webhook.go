package dto

import "github.com/polarisedu/coursepay/internal/domain/model"

// WebhookRequest is the provider payment notification. The provider has
// shipped both camelCase and snake_case payment id fields over time, so both
// are accepted.
type WebhookRequest struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData is the event payload.
type WebhookData struct {
	PaymentID      string            `json:"paymentId"`
	PaymentIDSnake string            `json:"payment_id"`
	Status         string            `json:"status"`
	CustomData     WebhookCustomData `json:"customData"`
}

// WebhookCustomData carries checkout hints echoed back by the provider.
type WebhookCustomData struct {
	UserID string `json:"userId"`
	Price  *int64 `json:"price"`
}

// CorrelationID resolves the payment id across payload variants.
func (r *WebhookRequest) CorrelationID() string {
	if r.Data.PaymentID != "" {
		return r.Data.PaymentID
	}
	return r.Data.PaymentIDSnake
}

// PaymentEvent converts the request into a domain payment event.
func (r *WebhookRequest) PaymentEvent() model.PaymentEvent {
	return model.PaymentEvent{
		CorrelationID: r.CorrelationID(),
		Status:        model.ProviderStatus(r.Data.Status),
		UserID:        r.Data.CustomData.UserID,
		Price:         r.Data.CustomData.Price,
	}
}
