package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/adapter/provider"
	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/pkg/auth"
	"github.com/polarisedu/coursepay/internal/usecase"
)

// HealthChecker reports storage connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentFacade is the single entry point the transports and the background
// worker talk to. It delegates to the use cases without adding logic.
type PaymentFacade struct {
	purchase  *usecase.PurchaseUseCase
	reconcile *usecase.ReconcileUseCase
	admin     *usecase.AdminUseCase
	tokens    auth.Strategy
	provider  provider.Client
	health    HealthChecker
}

// NewPaymentFacade constructs PaymentFacade.
func NewPaymentFacade(
	purchase *usecase.PurchaseUseCase,
	reconcile *usecase.ReconcileUseCase,
	admin *usecase.AdminUseCase,
	tokens auth.Strategy,
	providerClient provider.Client,
	health HealthChecker,
) *PaymentFacade {
	return &PaymentFacade{
		purchase:  purchase,
		reconcile: reconcile,
		admin:     admin,
		tokens:    tokens,
		provider:  providerClient,
		health:    health,
	}
}

// InitiatePurchase records a buyer purchase intent.
func (f *PaymentFacade) InitiatePurchase(ctx context.Context, userID string, in usecase.IntentInput) (*model.Purchase, error) {
	return f.purchase.Initiate(ctx, userID, in)
}

// PurchasesOf returns the user's purchase history.
func (f *PaymentFacade) PurchasesOf(ctx context.Context, userID string) ([]model.Purchase, error) {
	return f.purchase.ListByUser(ctx, userID)
}

// ActiveProduct resolves the sellable product.
func (f *PaymentFacade) ActiveProduct(ctx context.Context) (*model.Product, error) {
	return f.purchase.ActiveProduct(ctx)
}

// ApplyPaymentEvent folds a provider event into the ledger.
func (f *PaymentFacade) ApplyPaymentEvent(ctx context.Context, ev model.PaymentEvent) (usecase.ReconcileOutcome, *model.Purchase, error) {
	return f.reconcile.Apply(ctx, ev)
}

// CancelPurchase moves a purchase to cancelled.
func (f *PaymentFacade) CancelPurchase(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	return f.admin.Cancel(ctx, id)
}

// AllPurchases returns every purchase for the back office.
func (f *PaymentFacade) AllPurchases(ctx context.Context) ([]model.Purchase, error) {
	return f.admin.ListPurchases(ctx)
}

// CreateProduct registers a new product.
func (f *PaymentFacade) CreateProduct(ctx context.Context, in usecase.ProductInput) (*model.Product, error) {
	return f.admin.CreateProduct(ctx, in)
}

// ParseToken validates a bearer token and returns the user id.
func (f *PaymentFacade) ParseToken(token string) (string, error) {
	return f.tokens.ParseToken(token)
}

// PurchasesForVerification claims a batch of completed unverified purchases.
func (f *PaymentFacade) PurchasesForVerification(ctx context.Context, limit int) ([]model.Purchase, error) {
	return f.purchase.SelectUnverified(ctx, limit)
}

// CheckPayment asks the provider for its view of one payment.
func (f *PaymentFacade) CheckPayment(ctx context.Context, paymentID string) (*model.Verification, error) {
	return f.provider.Verify(ctx, paymentID)
}

// ConfirmVerification stamps the verification result onto a purchase.
func (f *PaymentFacade) ConfirmVerification(ctx context.Context, id uuid.UUID, externalTxID *string) error {
	return f.purchase.MarkVerified(ctx, id, externalTxID)
}

// HealthCheck reports storage connectivity.
func (f *PaymentFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}
