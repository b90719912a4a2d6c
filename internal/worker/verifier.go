package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/adapter/provider"
	"github.com/polarisedu/coursepay/internal/domain/model"
)

// Facade is the slice of application behaviour the verifier needs.
type Facade interface {
	PurchasesForVerification(ctx context.Context, limit int) ([]model.Purchase, error)
	CheckPayment(ctx context.Context, paymentID string) (*model.Verification, error)
	ConfirmVerification(ctx context.Context, id uuid.UUID, externalTxID *string) error
}

// VerifyProcessor sweeps completed purchases that have not been confirmed
// against the provider yet. Rows are claimed in batches with row locks, so
// several instances can run the sweep concurrently.
type VerifyProcessor struct {
	facade       Facade
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
	workers      int

	wg   sync.WaitGroup
	stop context.CancelFunc
}

// NewVerifyProcessor constructs VerifyProcessor.
func NewVerifyProcessor(facade Facade, logger *slog.Logger, pollInterval time.Duration, batchSize, workers int) *VerifyProcessor {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 16
	}
	if workers <= 0 {
		workers = 1
	}
	return &VerifyProcessor{
		facade:       facade,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
	}
}

// Start launches the dispatch loop and the worker pool.
func (p *VerifyProcessor) Start(ctx context.Context) {
	ctx, p.stop = context.WithCancel(ctx)
	jobs := make(chan model.Purchase)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for purchase := range jobs {
				p.handle(ctx, purchase)
			}
		}()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(jobs)
		p.dispatch(ctx, jobs)
	}()
}

// Stop halts the sweep and waits for in-flight verifications.
func (p *VerifyProcessor) Stop() {
	if p.stop != nil {
		p.stop()
	}
	p.wg.Wait()
}

func (p *VerifyProcessor) dispatch(ctx context.Context, jobs chan<- model.Purchase) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch, err := p.facade.PurchasesForVerification(ctx, p.batchSize)
			if err != nil {
				p.logger.Error("failed to claim verification batch", slog.String("error", err.Error()))
				continue
			}
			for _, purchase := range batch {
				select {
				case <-ctx.Done():
					return
				case jobs <- purchase:
				}
			}
		}
	}
}

func (p *VerifyProcessor) handle(ctx context.Context, purchase model.Purchase) {
	if purchase.CorrelationID == nil {
		return
	}
	paymentID := *purchase.CorrelationID

	verification, err := p.facade.CheckPayment(ctx, paymentID)
	if err != nil {
		var tooMany provider.TooManyRequestsError
		switch {
		case errors.As(err, &tooMany):
			p.logger.Warn("provider rate limit hit", slog.Duration("retry_after", tooMany.RetryAfter))
			select {
			case <-ctx.Done():
			case <-time.After(tooMany.RetryAfter):
			}
		case errors.Is(err, provider.ErrPaymentNotFound):
			// provider lost the payment; record the sweep so the row is not
			// retried forever
			p.logger.Warn("payment unknown to provider",
				slog.String("purchase_id", purchase.ID.String()),
				slog.String("payment_id", paymentID))
			if err := p.facade.ConfirmVerification(ctx, purchase.ID, nil); err != nil {
				p.logger.Error("failed to record verification", slog.String("error", err.Error()))
			}
		default:
			p.logger.Error("payment verification failed",
				slog.String("purchase_id", purchase.ID.String()),
				slog.String("error", err.Error()))
		}
		return
	}

	if !verification.Status.Paid() {
		p.logger.Error("completed purchase not settled at provider",
			slog.String("purchase_id", purchase.ID.String()),
			slog.String("status", string(verification.Status)))
		return
	}
	if verification.Amount > 0 && verification.Amount != purchase.Price {
		p.logger.Warn("verified amount differs from ledger price",
			slog.String("purchase_id", purchase.ID.String()),
			slog.Int64("ledger", purchase.Price),
			slog.Int64("provider", verification.Amount))
	}

	var externalTx *string
	if verification.TransactionID != "" {
		tx := verification.TransactionID
		externalTx = &tx
	}
	if err := p.facade.ConfirmVerification(ctx, purchase.ID, externalTx); err != nil {
		p.logger.Error("failed to record verification",
			slog.String("purchase_id", purchase.ID.String()),
			slog.String("error", err.Error()))
	}
}
