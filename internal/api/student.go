package api

import (
	"canteen_system/internal/ledger"     // Balance changes
	"canteen_system/internal/middleware" // Authenticated user
	"canteen_system/internal/query"      // Read models
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact money arithmetic
)

// RechargeRequest is the body of POST /student/recharges
type RechargeRequest struct {
	Amount decimal.Decimal `json:"amount"` // Positive, at most the recharge ceiling
}

// StudentCardHandler returns the caller's meal card
func StudentCardHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		card, ok, err := q.StudentCard(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meal card not found"})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

// StudentTransactionsHandler returns the caller's transaction history
func StudentTransactionsHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := q.TransactionsByUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": rows})
	}
}

// RequestRechargeHandler files a recharge request against the caller's card
func RequestRechargeHandler(q *query.Service, l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RechargeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		card, ok, err := q.StudentCard(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Meal card not found"})
			return
		}
		id, err := l.RequestRecharge(c.Request.Context(), card.ID, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"transaction_id": id, "status": "pending"})
	}
}
