package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/domain/model"
)

// PurchaseRepository describes persistence operations with the purchase
// ledger. Uniqueness of non-null correlation ids and of active
// (user, product) pairs is enforced at the storage layer; Create and
// AttachCorrelation surface those violations as ErrCorrelationTaken /
// ErrActiveExists so callers can merge instead of failing.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*model.Purchase, error)
	GetActiveByUserProduct(ctx context.Context, userID string, productID uuid.UUID) (*model.Purchase, error)
	GetCancelledByUserProduct(ctx context.Context, userID string, productID uuid.UUID) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]model.Purchase, error)
	ListAll(ctx context.Context) ([]model.Purchase, error)

	// CompleteByCorrelationID idempotently marks the non-cancelled row holding
	// the correlation id as completed. Returns false when no such row matched.
	CompleteByCorrelationID(ctx context.Context, correlationID string) (bool, error)
	// AttachCorrelation attaches the correlation id to the row and completes
	// it, conditional on the row not being cancelled and not already carrying
	// a different correlation id.
	AttachCorrelation(ctx context.Context, id uuid.UUID, correlationID string) (bool, error)
	// Reactivate rewrites a cancelled row in place, conditional on it still
	// being cancelled.
	Reactivate(ctx context.Context, id uuid.UUID, price int64, status model.PaymentStatus, correlationID *string, externalTxID *string) (*model.Purchase, error)
	// Cancel is a compare-and-set: only pending or completed rows transition.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)

	SelectUnverifiedBatch(ctx context.Context, limit int) ([]model.Purchase, error)
	MarkVerified(ctx context.Context, id uuid.UUID, externalTxID *string) error
}
