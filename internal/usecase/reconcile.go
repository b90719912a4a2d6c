package usecase

import (
	"context"
	"errors"
	"log/slog"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/domain/repository"
)

// ReconcileOutcome names what a payment event did to the ledger.
type ReconcileOutcome string

const (
	// ReconcileApplied means an existing row was completed or tied to the payment.
	ReconcileApplied ReconcileOutcome = "applied"
	// ReconcileCreated means the event arrived first and created the row itself.
	ReconcileCreated ReconcileOutcome = "created"
	// ReconcileDeferred means no row and no user hint; the buyer callback will finish.
	ReconcileDeferred ReconcileOutcome = "deferred"
	// ReconcileIgnored means the event required no write.
	ReconcileIgnored ReconcileOutcome = "ignored"
)

// ReconcileUseCase merges provider payment events into the purchase ledger.
type ReconcileUseCase struct {
	purchases repository.PurchaseRepository
	products  repository.ProductRepository
	logger    *slog.Logger
}

// NewReconcileUseCase constructs ReconcileUseCase.
func NewReconcileUseCase(purchases repository.PurchaseRepository, products repository.ProductRepository, logger *slog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{purchases: purchases, products: products, logger: logger}
}

// Apply folds one payment event into the ledger. The operation is replay safe:
// applying the same event twice leaves the ledger unchanged. Cancelled rows are
// never resurrected by the provider; only the buyer path may reactivate.
func (u *ReconcileUseCase) Apply(ctx context.Context, ev model.PaymentEvent) (ReconcileOutcome, *model.Purchase, error) {
	if ev.CorrelationID == "" {
		return ReconcileIgnored, nil, nil
	}
	if !ev.Status.Paid() {
		u.logger.Info("ignoring non-paid payment event",
			slog.String("correlation_id", ev.CorrelationID),
			slog.String("status", string(ev.Status)))
		return ReconcileIgnored, nil, nil
	}

	existing, err := u.purchases.GetByCorrelationID(ctx, ev.CorrelationID)
	if err == nil {
		if existing.Status == model.PaymentStatusCancelled {
			u.logger.Warn("payment confirmation for cancelled purchase",
				slog.String("correlation_id", ev.CorrelationID),
				slog.String("purchase_id", existing.ID.String()))
			return ReconcileIgnored, existing, nil
		}
		if _, err := u.purchases.CompleteByCorrelationID(ctx, ev.CorrelationID); err != nil {
			return ReconcileIgnored, nil, err
		}
		return u.completedRow(ctx, ev.CorrelationID)
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return ReconcileIgnored, nil, err
	}

	if ev.UserID == "" {
		// Nothing to tie the payment to yet; the buyer callback carries the
		// same correlation id and will create the row.
		u.logger.Info("deferring payment event without user hint",
			slog.String("correlation_id", ev.CorrelationID))
		return ReconcileDeferred, nil, nil
	}

	product, err := u.products.GetActive(ctx)
	if err != nil {
		return ReconcileIgnored, nil, err
	}

	active, err := u.purchases.GetActiveByUserProduct(ctx, ev.UserID, product.ID)
	if err == nil {
		return u.attach(ctx, active, ev.CorrelationID)
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return ReconcileIgnored, nil, err
	}

	price := product.EffectivePrice()
	if ev.Price != nil && *ev.Price > 0 {
		price = *ev.Price
	}

	corr := ev.CorrelationID
	created, err := u.purchases.Create(ctx, &model.Purchase{
		UserID:        ev.UserID,
		ProductID:     product.ID,
		Price:         price,
		Status:        model.PaymentStatusCompleted,
		CorrelationID: &corr,
	})
	if err == nil {
		return ReconcileCreated, created, nil
	}

	switch {
	case errors.Is(err, domainErrors.ErrCorrelationTaken):
		// the buyer callback landed between our lookup and insert
		if _, err := u.purchases.CompleteByCorrelationID(ctx, ev.CorrelationID); err != nil {
			return ReconcileIgnored, nil, err
		}
		return u.completedRow(ctx, ev.CorrelationID)
	case errors.Is(err, domainErrors.ErrActiveExists):
		active, err := u.purchases.GetActiveByUserProduct(ctx, ev.UserID, product.ID)
		if err != nil {
			return ReconcileIgnored, nil, err
		}
		return u.attach(ctx, active, ev.CorrelationID)
	default:
		return ReconcileIgnored, nil, err
	}
}

// attach ties the correlation id to an existing active row and completes it.
func (u *ReconcileUseCase) attach(ctx context.Context, active *model.Purchase, correlationID string) (ReconcileOutcome, *model.Purchase, error) {
	if active.CorrelationID != nil && *active.CorrelationID != correlationID {
		u.logger.Warn("active purchase already tied to another payment",
			slog.String("purchase_id", active.ID.String()),
			slog.String("correlation_id", correlationID),
			slog.String("attached", *active.CorrelationID))
		return ReconcileIgnored, active, nil
	}

	ok, err := u.purchases.AttachCorrelation(ctx, active.ID, correlationID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrCorrelationTaken) {
			if _, err := u.purchases.CompleteByCorrelationID(ctx, correlationID); err != nil {
				return ReconcileIgnored, nil, err
			}
			return u.completedRow(ctx, correlationID)
		}
		return ReconcileIgnored, nil, err
	}
	if !ok {
		u.logger.Warn("correlation attach precondition changed",
			slog.String("purchase_id", active.ID.String()),
			slog.String("correlation_id", correlationID))
		return ReconcileIgnored, active, nil
	}

	refreshed, err := u.purchases.GetByID(ctx, active.ID)
	if err != nil {
		return ReconcileIgnored, nil, err
	}
	return ReconcileApplied, refreshed, nil
}

func (u *ReconcileUseCase) completedRow(ctx context.Context, correlationID string) (ReconcileOutcome, *model.Purchase, error) {
	p, err := u.purchases.GetByCorrelationID(ctx, correlationID)
	if err != nil {
		return ReconcileIgnored, nil, err
	}
	return ReconcileApplied, p, nil
}
