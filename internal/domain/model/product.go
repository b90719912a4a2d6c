package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is the single sellable catalog entry. The deployment-wide active
// product is the most recently created row.
type Product struct {
	ID              uuid.UUID
	Title           string
	OriginalPrice   int64
	DiscountedPrice *int64
	CreatedAt       time.Time
}

// EffectivePrice returns the discounted price when set, otherwise the
// original price.
func (p *Product) EffectivePrice() int64 {
	if p.DiscountedPrice != nil && *p.DiscountedPrice > 0 {
		return *p.DiscountedPrice
	}
	return p.OriginalPrice
}
