package dto

import (
	"time"

	"github.com/polarisedu/coursepay/internal/domain/model"
)

// ProductResponse is the sellable product as seen by clients.
type ProductResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	OriginalPrice   int64     `json:"originalPrice"`
	DiscountedPrice *int64    `json:"discountedPrice,omitempty"`
	Price           int64     `json:"price"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateProductRequest registers a new product.
type CreateProductRequest struct {
	Title           string `json:"title" binding:"required"`
	OriginalPrice   int64  `json:"originalPrice" binding:"required,min=1"`
	DiscountedPrice *int64 `json:"discountedPrice" binding:"omitempty,min=0"`
}

// NewProductResponse maps a domain product onto the wire shape.
func NewProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID.String(),
		Title:           p.Title,
		OriginalPrice:   p.OriginalPrice,
		DiscountedPrice: p.DiscountedPrice,
		Price:           p.EffectivePrice(),
		CreatedAt:       p.CreatedAt,
	}
}
