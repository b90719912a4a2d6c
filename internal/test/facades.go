package test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/usecase"
)

// VerifierStub returns canned verification results keyed by payment id.
type VerifierStub struct {
	mu      sync.Mutex
	Results map[string]*model.Verification
	Err     error
	Calls   []string
}

func (s *VerifierStub) Verify(_ context.Context, paymentID string) (*model.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, paymentID)
	if s.Err != nil {
		return nil, s.Err
	}
	if v, ok := s.Results[paymentID]; ok {
		return v, nil
	}
	return &model.Verification{PaymentID: paymentID, Status: "PAID"}, nil
}

// FacadeStub implements the HTTP handler facade with function fields.
type FacadeStub struct {
	InitiatePurchaseFn  func(ctx context.Context, userID string, in usecase.IntentInput) (*model.Purchase, error)
	PurchasesOfFn       func(ctx context.Context, userID string) ([]model.Purchase, error)
	ActiveProductFn     func(ctx context.Context) (*model.Product, error)
	ApplyPaymentEventFn func(ctx context.Context, ev model.PaymentEvent) (usecase.ReconcileOutcome, *model.Purchase, error)
	CancelPurchaseFn    func(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	AllPurchasesFn      func(ctx context.Context) ([]model.Purchase, error)
	CreateProductFn     func(ctx context.Context, in usecase.ProductInput) (*model.Product, error)
	ParseTokenFn        func(token string) (string, error)
	HealthCheckFn       func(ctx context.Context) error
}

func (s *FacadeStub) InitiatePurchase(ctx context.Context, userID string, in usecase.IntentInput) (*model.Purchase, error) {
	return s.InitiatePurchaseFn(ctx, userID, in)
}

func (s *FacadeStub) PurchasesOf(ctx context.Context, userID string) ([]model.Purchase, error) {
	return s.PurchasesOfFn(ctx, userID)
}

func (s *FacadeStub) ActiveProduct(ctx context.Context) (*model.Product, error) {
	return s.ActiveProductFn(ctx)
}

func (s *FacadeStub) ApplyPaymentEvent(ctx context.Context, ev model.PaymentEvent) (usecase.ReconcileOutcome, *model.Purchase, error) {
	return s.ApplyPaymentEventFn(ctx, ev)
}

func (s *FacadeStub) CancelPurchase(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	return s.CancelPurchaseFn(ctx, id)
}

func (s *FacadeStub) AllPurchases(ctx context.Context) ([]model.Purchase, error) {
	return s.AllPurchasesFn(ctx)
}

func (s *FacadeStub) CreateProduct(ctx context.Context, in usecase.ProductInput) (*model.Product, error) {
	return s.CreateProductFn(ctx, in)
}

func (s *FacadeStub) ParseToken(token string) (string, error) {
	if s.ParseTokenFn != nil {
		return s.ParseTokenFn(token)
	}
	return token, nil
}

func (s *FacadeStub) HealthCheck(ctx context.Context) error {
	if s.HealthCheckFn != nil {
		return s.HealthCheckFn(ctx)
	}
	return nil
}

// WorkerFacadeStub implements the verification sweep facade.
type WorkerFacadeStub struct {
	mu sync.Mutex

	Batch    []model.Purchase
	VerifyFn func(ctx context.Context, paymentID string) (*model.Verification, error)

	Confirmed map[uuid.UUID]*string
}

func (s *WorkerFacadeStub) PurchasesForVerification(_ context.Context, limit int) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Batch) == 0 {
		return nil, nil
	}
	n := limit
	if n > len(s.Batch) {
		n = len(s.Batch)
	}
	batch := s.Batch[:n]
	s.Batch = s.Batch[n:]
	return batch, nil
}

func (s *WorkerFacadeStub) CheckPayment(ctx context.Context, paymentID string) (*model.Verification, error) {
	return s.VerifyFn(ctx, paymentID)
}

func (s *WorkerFacadeStub) ConfirmVerification(_ context.Context, id uuid.UUID, externalTxID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Confirmed == nil {
		s.Confirmed = make(map[uuid.UUID]*string)
	}
	s.Confirmed[id] = externalTxID
	return nil
}

// ConfirmedTx returns the recorded external tx id for a purchase.
func (s *WorkerFacadeStub) ConfirmedTx(id uuid.UUID) (*string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.Confirmed[id]
	return tx, ok
}
