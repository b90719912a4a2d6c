package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/adapter/provider"
	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/domain/repository"
)

// Verifier is the advisory payment verification collaborator.
type Verifier interface {
	Verify(ctx context.Context, paymentID string) (*model.Verification, error)
}

// IntentInput is the buyer-path payload after checkout. CorrelationID is
// present when the redirect carried a settled payment id.
type IntentInput struct {
	Price         *int64
	CorrelationID string
	ExternalTxID  string
}

// PurchaseUseCase drives the buyer side of purchase reconciliation.
type PurchaseUseCase struct {
	purchases     repository.PurchaseRepository
	products      repository.ProductRepository
	verifier      Verifier
	verifyTimeout time.Duration
	logger        *slog.Logger
}

// NewPurchaseUseCase constructs PurchaseUseCase.
func NewPurchaseUseCase(purchases repository.PurchaseRepository, products repository.ProductRepository, verifier Verifier, verifyTimeout time.Duration, logger *slog.Logger) *PurchaseUseCase {
	if verifyTimeout <= 0 {
		verifyTimeout = 5 * time.Second
	}
	return &PurchaseUseCase{
		purchases:     purchases,
		products:      products,
		verifier:      verifier,
		verifyTimeout: verifyTimeout,
		logger:        logger,
	}
}

// Initiate records a purchase intent for the active product. An active row
// for the (user, product) pair rejects the call; a cancelled row is
// reactivated in place; otherwise a new row is created. The initial status is
// decided solely by correlation id presence. Uniqueness races against the
// webhook path are recovered by merging onto the winner's row.
func (u *PurchaseUseCase) Initiate(ctx context.Context, userID string, in IntentInput) (*model.Purchase, error) {
	product, err := u.products.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	externalTx := optional(in.ExternalTxID)
	if in.CorrelationID != "" {
		if v := u.verifyAdvisory(ctx, in.CorrelationID, in.Price); v != nil {
			if externalTx == nil && v.TransactionID != "" {
				tx := v.TransactionID
				externalTx = &tx
			}
		}
	}

	price := resolvePrice(in.Price, product)
	status := model.StatusForIntent(in.CorrelationID)
	corr := optional(in.CorrelationID)

	if _, err := u.purchases.GetActiveByUserProduct(ctx, userID, product.ID); err == nil {
		return nil, domainErrors.ErrDuplicatePurchase
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	if cancelled, err := u.purchases.GetCancelledByUserProduct(ctx, userID, product.ID); err == nil {
		reactivated, err := u.purchases.Reactivate(ctx, cancelled.ID, price, status, corr, externalTx)
		if err == nil {
			return reactivated, nil
		}
		return u.recoverConflict(ctx, userID, product.ID, in.CorrelationID, err)
	} else if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}

	created, err := u.purchases.Create(ctx, &model.Purchase{
		UserID:        userID,
		ProductID:     product.ID,
		Price:         price,
		Status:        status,
		CorrelationID: corr,
		ExternalTxID:  externalTx,
	})
	if err == nil {
		return created, nil
	}
	return u.recoverConflict(ctx, userID, product.ID, in.CorrelationID, err)
}

// recoverConflict converts a lost write race into the idempotent merge the
// winner's row expects, so uniqueness violations never surface to the buyer.
func (u *PurchaseUseCase) recoverConflict(ctx context.Context, userID string, productID uuid.UUID, correlationID string, cause error) (*model.Purchase, error) {
	switch {
	case errors.Is(cause, domainErrors.ErrCorrelationTaken) && correlationID != "":
		if _, err := u.purchases.CompleteByCorrelationID(ctx, correlationID); err != nil {
			return nil, err
		}
		p, err := u.purchases.GetByCorrelationID(ctx, correlationID)
		if err != nil {
			return nil, err
		}
		if p.UserID != userID {
			u.logger.Error("correlation id held by another user",
				slog.String("correlation_id", correlationID),
				slog.String("user_id", userID))
			return nil, cause
		}
		return p, nil

	case errors.Is(cause, domainErrors.ErrActiveExists), errors.Is(cause, domainErrors.ErrInvalidTransition):
		active, err := u.purchases.GetActiveByUserProduct(ctx, userID, productID)
		if err != nil {
			return nil, err
		}
		if correlationID != "" {
			if active.CorrelationID == nil {
				ok, err := u.purchases.AttachCorrelation(ctx, active.ID, correlationID)
				if err != nil {
					return nil, err
				}
				if ok {
					return u.purchases.GetByID(ctx, active.ID)
				}
			} else if *active.CorrelationID == correlationID {
				return active, nil
			}
		}
		return nil, domainErrors.ErrDuplicatePurchase

	default:
		return nil, cause
	}
}

// verifyAdvisory asks the provider for its view of the payment. All failures
// and mismatches are logged; none of them block the purchase write.
func (u *PurchaseUseCase) verifyAdvisory(ctx context.Context, correlationID string, requestedPrice *int64) *model.Verification {
	vctx, cancel := context.WithTimeout(ctx, u.verifyTimeout)
	defer cancel()

	v, err := u.verifier.Verify(vctx, correlationID)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			u.logger.Warn("payment verification skipped: provider not configured")
		} else {
			u.logger.Warn("payment verification failed",
				slog.String("correlation_id", correlationID),
				slog.String("error", err.Error()))
		}
		return nil
	}

	if !v.Status.Paid() {
		u.logger.Warn("payment not settled at provider",
			slog.String("correlation_id", correlationID),
			slog.String("status", string(v.Status)))
	}
	if requestedPrice != nil && v.Amount > 0 && v.Amount != *requestedPrice {
		u.logger.Error("payment amount mismatch",
			slog.String("correlation_id", correlationID),
			slog.Int64("requested", *requestedPrice),
			slog.Int64("actual", v.Amount))
	}
	return v
}

// ListByUser returns the user's purchases, newest first.
func (u *PurchaseUseCase) ListByUser(ctx context.Context, userID string) ([]model.Purchase, error) {
	return u.purchases.ListByUser(ctx, userID)
}

// ActiveProduct resolves the single sellable product.
func (u *PurchaseUseCase) ActiveProduct(ctx context.Context) (*model.Product, error) {
	return u.products.GetActive(ctx)
}

// SelectUnverified returns completed purchases awaiting verification.
func (u *PurchaseUseCase) SelectUnverified(ctx context.Context, limit int) ([]model.Purchase, error) {
	return u.purchases.SelectUnverifiedBatch(ctx, limit)
}

// MarkVerified stamps the verification result onto a purchase.
func (u *PurchaseUseCase) MarkVerified(ctx context.Context, id uuid.UUID, externalTxID *string) error {
	return u.purchases.MarkVerified(ctx, id, externalTxID)
}

// resolvePrice follows the original fallback chain: requested price, then
// discounted, then original product price.
func resolvePrice(requested *int64, product *model.Product) int64 {
	if requested != nil && *requested > 0 {
		return *requested
	}
	return product.EffectivePrice()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
