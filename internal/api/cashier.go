package api

import (
	"canteen_system/internal/ledger"     // Balance changes
	"canteen_system/internal/middleware" // Authenticated user
	"canteen_system/internal/query"      // Read models
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money arithmetic
)

// PurchaseRequest is the body of POST /cashier/purchases
type PurchaseRequest struct {
	CardID      string          `json:"card_id" binding:"required"`     // Card to charge
	Amount      decimal.Decimal `json:"amount"`                         // Positive amount
	Description string          `json:"description" binding:"required"` // What was bought
}

// CheckoutRequest is the body of POST /cashier/checkout
type CheckoutRequest struct {
	CardID string            `json:"card_id" binding:"required"`     // Card to charge
	Items  []ledger.LineItem `json:"items" binding:"required,min=1"` // Cart contents
}

// CardLookupHandler finds the holder of an active card by its number
func CardLookupHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		holder, ok, err := q.FindCardByNumber(c.Request.Context(), c.Param("cardNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found or inactive"})
			return
		}
		c.JSON(http.StatusOK, holder)
	}
}

// PurchaseHandler charges a free-form amount to a card
func PurchaseHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tx, err := l.RecordPurchase(c.Request.Context(), req.CardID, req.Amount, req.Description, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tx)
	}
}

// CheckoutHandler charges a cart of menu items to a card
func CheckoutHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tx, err := l.Checkout(c.Request.Context(), req.CardID, req.Items, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tx)
	}
}

// MealsHandler returns the available menu
func MealsHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		meals, err := q.ListMeals(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"meals": meals})
	}
}
