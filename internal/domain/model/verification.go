package model

import "strings"

// ProviderStatus is a payment status as reported by the provider, either in a
// webhook notification or a verification lookup.
type ProviderStatus string

// Paid reports whether the provider considers the payment settled.
func (s ProviderStatus) Paid() bool {
	return strings.EqualFold(string(s), "PAID")
}

// Verification is the provider's authoritative view of one payment, fetched
// through the verification API. Advisory only: the reconciliation flow never
// blocks on it.
type Verification struct {
	PaymentID     string
	Status        ProviderStatus
	Amount        int64
	TransactionID string
}

// PaymentEvent is a reconciliation signal from the provider webhook. UserID
// and Price are optional hints carried in the event custom data.
type PaymentEvent struct {
	CorrelationID string
	Status        ProviderStatus
	UserID        string
	Price         *int64
}
