package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus describes the purchase payment lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Active reports whether the status counts against the one-active-purchase
// constraint. Only cancelled rows free the (user, product) slot.
func (s PaymentStatus) Active() bool {
	return s != PaymentStatusCancelled
}

// CanTransitionTo reports whether the status edge is allowed:
// pending -> completed|cancelled, completed -> cancelled, and
// cancelled -> pending|completed (reactivation through a new purchase intent).
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusCompleted || next == PaymentStatusCancelled
	case PaymentStatusCompleted:
		return next == PaymentStatusCancelled
	case PaymentStatusCancelled:
		return next == PaymentStatusPending || next == PaymentStatusCompleted
	default:
		return false
	}
}

// StatusForIntent is the single place that decides the initial status of a
// purchase write: a correlation id means the provider already settled the
// payment, so the row is completed; otherwise it waits for confirmation.
func StatusForIntent(correlationID string) PaymentStatus {
	if correlationID != "" {
		return PaymentStatusCompleted
	}
	return PaymentStatusPending
}

// Purchase is one row of the purchase ledger. CorrelationID is the provider
// assigned payment id tying the buyer path and the webhook to the same
// payment; it is nil until either channel attaches it.
type Purchase struct {
	ID            uuid.UUID
	UserID        string
	ProductID     uuid.UUID
	Price         int64
	Status        PaymentStatus
	CorrelationID *string
	ExternalTxID  *string
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
