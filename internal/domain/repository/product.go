package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/polarisedu/coursepay/internal/domain/model"
)

// ProductRepository provides access to the catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// GetActive returns the single sellable product, resolved as the most
	// recently created row.
	GetActive(ctx context.Context) (*model.Product, error)
}
