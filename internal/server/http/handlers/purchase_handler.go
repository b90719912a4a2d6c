package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polarisedu/coursepay/internal/domain/errors"
	"github.com/polarisedu/coursepay/internal/server/http/dto"
	"github.com/polarisedu/coursepay/internal/usecase"
)

// CreatePurchase handles POST /api/purchase, the buyer-path write after
// checkout. A replayed call for the same (user, product) pair returns 409
// without touching the existing row.
func CreatePurchase(facade PurchaseFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		var req dto.PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		purchase, err := facade.InitiatePurchase(c.Request.Context(), userID, usecase.IntentInput{
			Price:         req.Price,
			CorrelationID: req.PaymentID,
			ExternalTxID:  req.TransactionID,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, dto.PurchaseEnvelope{Purchase: dto.NewPurchaseResponse(purchase)})
		case errors.Is(err, domainErrors.ErrNoActiveProduct):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active product"})
		case errors.Is(err, domainErrors.ErrDuplicatePurchase):
			c.JSON(http.StatusConflict, gin.H{"error": "purchase already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save purchase"})
		}
	}
}

// ListPurchases handles GET /api/purchases. Empty history answers 204.
func ListPurchases(facade PurchaseFacade) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		purchases, err := facade.PurchasesOf(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load purchases"})
			return
		}
		if len(purchases) == 0 {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, dto.NewPurchaseList(purchases))
	}
}
