package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polarisedu/coursepay/internal/config"
	"github.com/polarisedu/coursepay/internal/domain/repository"
)

// Module exposes use case constructors to fx graph.
var Module = fx.Provide(
	newPurchaseUseCase,
	NewReconcileUseCase,
	NewAdminUseCase,
)

type purchaseParams struct {
	fx.In

	Purchases repository.PurchaseRepository
	Products  repository.ProductRepository
	Verifier  Verifier
	Config    *config.Config
	Logger    *slog.Logger
}

func newPurchaseUseCase(p purchaseParams) *PurchaseUseCase {
	return NewPurchaseUseCase(p.Purchases, p.Products, p.Verifier, p.Config.VerifyTimeout, p.Logger)
}
