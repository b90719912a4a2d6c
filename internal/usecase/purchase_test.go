package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/test"
	"github.com/polarisedu/coursepay/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalog() (*test.ProductRepositoryStub, model.Product) {
	discounted := int64(79000)
	product := model.Product{
		ID:              uuid.New(),
		Title:           "Trading Course",
		OriginalPrice:   99000,
		DiscountedPrice: &discounted,
		CreatedAt:       time.Now(),
	}
	return test.NewProductRepositoryStub(product), product
}

func newPurchaseUseCase(purchases *test.PurchaseRepositoryStub, products *test.ProductRepositoryStub, verifier usecase.Verifier) *usecase.PurchaseUseCase {
	if verifier == nil {
		verifier = &test.VerifierStub{}
	}
	return usecase.NewPurchaseUseCase(purchases, products, verifier, time.Second, testLogger())
}

func TestInitiateNoActiveProduct(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	uc := newPurchaseUseCase(purchases, test.NewProductRepositoryStub(), nil)

	_, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{})
	if !errors.Is(err, domainErrors.ErrNoActiveProduct) {
		t.Fatalf("err = %v, want ErrNoActiveProduct", err)
	}
}

func TestInitiateWithoutCorrelationCreatesPending(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newPurchaseUseCase(purchases, products, nil)

	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != model.PaymentStatusPending {
		t.Errorf("status = %s, want pending", p.Status)
	}
	if p.CorrelationID != nil {
		t.Errorf("correlation id should be nil, got %q", *p.CorrelationID)
	}
	if p.Price != product.EffectivePrice() {
		t.Errorf("price = %d, want %d", p.Price, product.EffectivePrice())
	}
}

func TestInitiateWithCorrelationCreatesCompleted(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	verifier := &test.VerifierStub{Results: map[string]*model.Verification{
		"pay_1": {PaymentID: "pay_1", Status: "PAID", Amount: 79000, TransactionID: "tx_1"},
	}}
	uc := newPurchaseUseCase(purchases, products, verifier)

	price := int64(79000)
	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{
		Price:         &price,
		CorrelationID: "pay_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if p.CorrelationID == nil || *p.CorrelationID != "pay_1" {
		t.Errorf("correlation id = %v, want pay_1", p.CorrelationID)
	}
	if p.ExternalTxID == nil || *p.ExternalTxID != "tx_1" {
		t.Errorf("external tx id = %v, want backfilled tx_1", p.ExternalTxID)
	}
	if len(verifier.Calls) != 1 {
		t.Errorf("verifier calls = %d, want 1", len(verifier.Calls))
	}
}

func TestInitiateVerificationFailureDoesNotBlock(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	verifier := &test.VerifierStub{Err: errors.New("provider down")}
	uc := newPurchaseUseCase(purchases, products, verifier)

	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{CorrelationID: "pay_1"})
	if err != nil {
		t.Fatalf("verification failure must not block the write: %v", err)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
}

func TestInitiateDuplicateRejectedAndLedgerUntouched(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newPurchaseUseCase(purchases, products, nil)

	first, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{CorrelationID: "pay_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = uc.Initiate(context.Background(), "user-1", usecase.IntentInput{CorrelationID: "pay_2"})
	if !errors.Is(err, domainErrors.ErrDuplicatePurchase) {
		t.Fatalf("err = %v, want ErrDuplicatePurchase", err)
	}

	if purchases.Len() != 1 {
		t.Fatalf("ledger rows = %d, want 1", purchases.Len())
	}
	kept, err := purchases.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *kept.CorrelationID != "pay_1" {
		t.Errorf("original row modified: correlation id = %q", *kept.CorrelationID)
	}
	_ = product
}

func TestInitiateReactivatesCancelledRowInPlace(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newPurchaseUseCase(purchases, products, nil)

	cancelledID := uuid.New()
	purchases.Seed(model.Purchase{
		ID:        cancelledID,
		UserID:    "user-1",
		ProductID: product.ID,
		Price:     99000,
		Status:    model.PaymentStatusCancelled,
	})

	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{CorrelationID: "pay_9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != cancelledID {
		t.Errorf("reactivation must reuse the cancelled row, got new id %s", p.ID)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if p.CorrelationID == nil || *p.CorrelationID != "pay_9" {
		t.Errorf("correlation id = %v, want pay_9", p.CorrelationID)
	}
	if purchases.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", purchases.Len())
	}
}

// raceRepo injects a competing row right before the first Create, simulating
// the webhook path winning the insert race.
type raceRepo struct {
	*test.PurchaseRepositoryStub
	once   sync.Once
	inject func()
}

func (r *raceRepo) Create(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	r.once.Do(r.inject)
	return r.PurchaseRepositoryStub.Create(ctx, p)
}

func TestInitiateRecoversLostCorrelationRace(t *testing.T) {
	stub := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()

	webhookRowID := uuid.New()
	repo := &raceRepo{PurchaseRepositoryStub: stub, inject: func() {
		corr := "pay_race"
		stub.Seed(model.Purchase{
			ID:            webhookRowID,
			UserID:        "user-1",
			ProductID:     product.ID,
			Price:         79000,
			Status:        model.PaymentStatusCompleted,
			CorrelationID: &corr,
		})
	}}

	uc := usecase.NewPurchaseUseCase(repo, products, &test.VerifierStub{}, time.Second, testLogger())

	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{CorrelationID: "pay_race"})
	if err != nil {
		t.Fatalf("race must be recovered, got %v", err)
	}
	if p.ID != webhookRowID {
		t.Errorf("should converge onto the winner's row, got %s", p.ID)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if stub.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", stub.Len())
	}
}

func TestInitiateRecoversLostActivePairRace(t *testing.T) {
	stub := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()

	pendingRowID := uuid.New()
	repo := &raceRepo{PurchaseRepositoryStub: stub, inject: func() {
		stub.Seed(model.Purchase{
			ID:        pendingRowID,
			UserID:    "user-1",
			ProductID: product.ID,
			Price:     79000,
			Status:    model.PaymentStatusPending,
		})
	}}

	uc := usecase.NewPurchaseUseCase(repo, products, &test.VerifierStub{}, time.Second, testLogger())

	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{CorrelationID: "pay_attach"})
	if err != nil {
		t.Fatalf("race must be recovered, got %v", err)
	}
	if p.ID != pendingRowID {
		t.Errorf("should attach onto the existing row, got %s", p.ID)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if p.CorrelationID == nil || *p.CorrelationID != "pay_attach" {
		t.Errorf("correlation id = %v, want pay_attach", p.CorrelationID)
	}
	if stub.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", stub.Len())
	}
}

func TestInitiatePriceFallback(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	uc := newPurchaseUseCase(purchases, products, nil)

	requested := int64(50000)
	p, err := uc.Initiate(context.Background(), "user-1", usecase.IntentInput{Price: &requested})
	if err != nil {
		t.Fatal(err)
	}
	if p.Price != 50000 {
		t.Errorf("price = %d, want requested 50000", p.Price)
	}

	zero := int64(0)
	p2, err := uc.Initiate(context.Background(), "user-2", usecase.IntentInput{Price: &zero})
	if err != nil {
		t.Fatal(err)
	}
	if p2.Price != 79000 {
		t.Errorf("price = %d, want discounted fallback 79000", p2.Price)
	}
}
