package dto

import (
	"time"

	"github.com/polarisedu/coursepay/internal/domain/model"
)

// PurchaseRequest is the buyer-path payload sent after checkout.
type PurchaseRequest struct {
	Price         *int64 `json:"price" binding:"omitempty,min=0"`
	Title         string `json:"title"`
	PaymentID     string `json:"paymentId"`
	TransactionID string `json:"transactionId"`
}

// PurchaseResponse is one purchase row as seen by clients.
type PurchaseResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"productId"`
	Price        int64     `json:"price"`
	Status       string    `json:"status"`
	PaymentID    string    `json:"paymentId,omitempty"`
	ExternalTxID string    `json:"transactionId,omitempty"`
	VerifiedAt   *string   `json:"verifiedAt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PurchaseEnvelope wraps a single purchase row.
type PurchaseEnvelope struct {
	Purchase PurchaseResponse `json:"purchase"`
}

// NewPurchaseResponse maps a domain purchase onto the wire shape.
func NewPurchaseResponse(p *model.Purchase) PurchaseResponse {
	resp := PurchaseResponse{
		ID:        p.ID.String(),
		ProductID: p.ProductID.String(),
		Price:     p.Price,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
	if p.CorrelationID != nil {
		resp.PaymentID = *p.CorrelationID
	}
	if p.ExternalTxID != nil {
		resp.ExternalTxID = *p.ExternalTxID
	}
	if p.VerifiedAt != nil {
		s := p.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &s
	}
	return resp
}

// NewPurchaseList maps a slice of purchases.
func NewPurchaseList(purchases []model.Purchase) []PurchaseResponse {
	out := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		out = append(out, NewPurchaseResponse(&purchases[i]))
	}
	return out
}
