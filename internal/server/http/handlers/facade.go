package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/usecase"
)

// PurchaseFacade covers the buyer-facing operations.
type PurchaseFacade interface {
	InitiatePurchase(ctx context.Context, userID string, in usecase.IntentInput) (*model.Purchase, error)
	PurchasesOf(ctx context.Context, userID string) ([]model.Purchase, error)
	ActiveProduct(ctx context.Context) (*model.Product, error)
}

// WebhookFacade applies provider payment events.
type WebhookFacade interface {
	ApplyPaymentEvent(ctx context.Context, ev model.PaymentEvent) (usecase.ReconcileOutcome, *model.Purchase, error)
}

// AdminFacade covers back-office operations.
type AdminFacade interface {
	CancelPurchase(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	AllPurchases(ctx context.Context) ([]model.Purchase, error)
	CreateProduct(ctx context.Context, in usecase.ProductInput) (*model.Product, error)
}

// Facade aggregates everything the HTTP layer needs.
type Facade interface {
	PurchaseFacade
	WebhookFacade
	AdminFacade
	ParseToken(token string) (string, error)
	HealthCheck(ctx context.Context) error
}
