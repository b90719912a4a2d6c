package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/server/http/dto"
)

// GetProduct handles GET /api/product, the public active product lookup.
func GetProduct(facade PurchaseFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := facade.ActiveProduct(c.Request.Context())
		switch {
		case err == nil:
			c.JSON(http.StatusOK, dto.NewProductResponse(product))
		case errors.Is(err, domainErrors.ErrNoActiveProduct):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active product"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		}
	}
}
