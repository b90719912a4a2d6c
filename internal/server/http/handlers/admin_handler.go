package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/server/http/dto"
	"github.com/polarisedu/coursepay/internal/usecase"
)

// AdminListPurchases handles GET /api/admin/purchases.
func AdminListPurchases(facade AdminFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		purchases, err := facade.AllPurchases(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load purchases"})
			return
		}
		c.JSON(http.StatusOK, dto.NewPurchaseList(purchases))
	}
}

// AdminCancelPurchase handles POST /api/admin/purchases/:id/cancel.
func AdminCancelPurchase(facade AdminFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
			return
		}

		purchase, err := facade.CancelPurchase(c.Request.Context(), id)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, dto.PurchaseEnvelope{Purchase: dto.NewPurchaseResponse(purchase)})
		case errors.Is(err, domainErrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
		case errors.Is(err, domainErrors.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "purchase already cancelled"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel purchase"})
		}
	}
}

// AdminCreateProduct handles POST /api/admin/products.
func AdminCreateProduct(facade AdminFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		product, err := facade.CreateProduct(c.Request.Context(), usecase.ProductInput{
			Title:           req.Title,
			OriginalPrice:   req.OriginalPrice,
			DiscountedPrice: req.DiscountedPrice,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, dto.NewProductResponse(product))
		case errors.Is(err, domainErrors.ErrInvalidProduct):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		}
	}
}
