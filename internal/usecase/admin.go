package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/domain/model"
	"github.com/polarisedu/coursepay/internal/domain/repository"
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Title           string
	OriginalPrice   int64
	DiscountedPrice *int64
}

// AdminUseCase covers back-office operations over the ledger.
type AdminUseCase struct {
	purchases repository.PurchaseRepository
	products  repository.ProductRepository
	logger    *slog.Logger
}

// NewAdminUseCase constructs AdminUseCase.
func NewAdminUseCase(purchases repository.PurchaseRepository, products repository.ProductRepository, logger *slog.Logger) *AdminUseCase {
	return &AdminUseCase{purchases: purchases, products: products, logger: logger}
}

// Cancel moves a purchase to cancelled, freeing the (user, product) slot and
// keeping the row as an audit record. Already cancelled rows are rejected.
func (u *AdminUseCase) Cancel(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	ok, err := u.purchases.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := u.purchases.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domainErrors.ErrInvalidTransition
	}

	u.logger.Info("purchase cancelled", slog.String("purchase_id", id.String()))
	return u.purchases.GetByID(ctx, id)
}

// ListPurchases returns all purchases, newest first.
func (u *AdminUseCase) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	return u.purchases.ListAll(ctx)
}

// CreateProduct registers a new sellable product. The newest product becomes
// the active one.
func (u *AdminUseCase) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.OriginalPrice <= 0 {
		return nil, domainErrors.ErrInvalidProduct
	}
	if in.DiscountedPrice != nil && (*in.DiscountedPrice < 0 || *in.DiscountedPrice > in.OriginalPrice) {
		return nil, domainErrors.ErrInvalidProduct
	}

	return u.products.Create(ctx, &model.Product{
		Title:           title,
		OriginalPrice:   in.OriginalPrice,
		DiscountedPrice: in.DiscountedPrice,
	})
}
