package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/test"
	"github.com/polarisedu/coursepay/internal/usecase"
)

func newReconcileUseCase(purchases *test.PurchaseRepositoryStub, products *test.ProductRepositoryStub) *usecase.ReconcileUseCase {
	return usecase.NewReconcileUseCase(purchases, products, testLogger())
}

func paidEvent(correlationID, userID string) model.PaymentEvent {
	return model.PaymentEvent{CorrelationID: correlationID, Status: "Paid", UserID: userID}
}

func TestApplyIgnoresEmptyCorrelation(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	outcome, _, err := uc.Apply(context.Background(), model.PaymentEvent{Status: "Paid"})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileIgnored {
		t.Errorf("outcome = %s, want ignored", outcome)
	}
}

func TestApplyIgnoresNonPaidStatus(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	outcome, _, err := uc.Apply(context.Background(), model.PaymentEvent{
		CorrelationID: "pay_1", Status: "Cancelled", UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileIgnored {
		t.Errorf("outcome = %s, want ignored", outcome)
	}
	if purchases.Len() != 0 {
		t.Errorf("ledger rows = %d, want 0", purchases.Len())
	}
}

func TestApplyCompletesRowFoundByCorrelation(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	corr := "pay_1"
	rowID := uuid.New()
	purchases.Seed(model.Purchase{
		ID:            rowID,
		UserID:        "user-1",
		ProductID:     product.ID,
		Price:         79000,
		Status:        model.PaymentStatusCompleted,
		CorrelationID: &corr,
	})

	outcome, p, err := uc.Apply(context.Background(), paidEvent("pay_1", ""))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileApplied {
		t.Errorf("outcome = %s, want applied", outcome)
	}
	if p.ID != rowID || p.Status != model.PaymentStatusCompleted {
		t.Errorf("unexpected row: %+v", p)
	}
	if purchases.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", purchases.Len())
	}
}

func TestApplyAttachesToActiveRowByUserHint(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	rowID := uuid.New()
	purchases.Seed(model.Purchase{
		ID:        rowID,
		UserID:    "user-1",
		ProductID: product.ID,
		Price:     79000,
		Status:    model.PaymentStatusPending,
	})

	outcome, p, err := uc.Apply(context.Background(), paidEvent("pay_7", "user-1"))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileApplied {
		t.Errorf("outcome = %s, want applied", outcome)
	}
	if p.ID != rowID {
		t.Errorf("should reuse the pending row, got %s", p.ID)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if p.CorrelationID == nil || *p.CorrelationID != "pay_7" {
		t.Errorf("correlation id = %v, want pay_7", p.CorrelationID)
	}
}

func TestApplyCreatesRowWhenEventArrivesFirst(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	price := int64(50000)
	outcome, p, err := uc.Apply(context.Background(), model.PaymentEvent{
		CorrelationID: "pay_first",
		Status:        "Paid",
		UserID:        "user-1",
		Price:         &price,
	})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileCreated {
		t.Errorf("outcome = %s, want created", outcome)
	}
	if p.Status != model.PaymentStatusCompleted {
		t.Errorf("status = %s, want completed", p.Status)
	}
	if p.Price != 50000 {
		t.Errorf("price = %d, want event hint 50000", p.Price)
	}
	if p.ProductID != product.ID {
		t.Errorf("product id = %s, want active product", p.ProductID)
	}
}

func TestApplyCreatesRowWithCatalogPriceFallback(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	outcome, p, err := uc.Apply(context.Background(), paidEvent("pay_first", "user-1"))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileCreated {
		t.Errorf("outcome = %s, want created", outcome)
	}
	if p.Price != product.EffectivePrice() {
		t.Errorf("price = %d, want catalog %d", p.Price, product.EffectivePrice())
	}
}

func TestApplyDefersWithoutRowOrUserHint(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	outcome, p, err := uc.Apply(context.Background(), paidEvent("pay_orphan", ""))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileDeferred {
		t.Errorf("outcome = %s, want deferred", outcome)
	}
	if p != nil {
		t.Errorf("no row expected, got %+v", p)
	}
	if purchases.Len() != 0 {
		t.Errorf("ledger rows = %d, want 0", purchases.Len())
	}
}

func TestApplyNeverResurrectsCancelledRow(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	corr := "pay_dead"
	rowID := uuid.New()
	purchases.Seed(model.Purchase{
		ID:            rowID,
		UserID:        "user-1",
		ProductID:     product.ID,
		Price:         79000,
		Status:        model.PaymentStatusCancelled,
		CorrelationID: &corr,
	})

	outcome, p, err := uc.Apply(context.Background(), paidEvent("pay_dead", "user-1"))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileIgnored {
		t.Errorf("outcome = %s, want ignored", outcome)
	}
	if p.Status != model.PaymentStatusCancelled {
		t.Errorf("row resurrected: status = %s", p.Status)
	}
}

func TestApplyIsReplaySafe(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, _ := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	first, row1, err := uc.Apply(context.Background(), paidEvent("pay_replay", "user-1"))
	if err != nil {
		t.Fatal(err)
	}
	if first != usecase.ReconcileCreated {
		t.Fatalf("first outcome = %s, want created", first)
	}

	second, row2, err := uc.Apply(context.Background(), paidEvent("pay_replay", "user-1"))
	if err != nil {
		t.Fatal(err)
	}
	if second != usecase.ReconcileApplied {
		t.Errorf("replay outcome = %s, want applied", second)
	}
	if row1.ID != row2.ID {
		t.Errorf("replay created a second row: %s vs %s", row1.ID, row2.ID)
	}
	if purchases.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", purchases.Len())
	}
}

func TestApplyIgnoresActiveRowTiedToAnotherPayment(t *testing.T) {
	purchases := test.NewPurchaseRepositoryStub()
	products, product := newCatalog()
	uc := newReconcileUseCase(purchases, products)

	other := "pay_other"
	purchases.Seed(model.Purchase{
		ID:            uuid.New(),
		UserID:        "user-1",
		ProductID:     product.ID,
		Price:         79000,
		Status:        model.PaymentStatusCompleted,
		CorrelationID: &other,
	})

	outcome, p, err := uc.Apply(context.Background(), paidEvent("pay_new", "user-1"))
	if err != nil {
		t.Fatal(err)
	}
	if outcome != usecase.ReconcileIgnored {
		t.Errorf("outcome = %s, want ignored", outcome)
	}
	if *p.CorrelationID != "pay_other" {
		t.Errorf("row re-tied: correlation id = %q", *p.CorrelationID)
	}
	if purchases.Len() != 1 {
		t.Errorf("ledger rows = %d, want 1", purchases.Len())
	}
}
