package api

import (
	"canteen_system/internal/ledger"     // Balance changes
	"canteen_system/internal/middleware" // Authenticated user
	"canteen_system/internal/query"      // Read models
	"net/http"                           // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// PendingRechargesHandler lists the recharge requests awaiting a decision
func PendingRechargesHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := q.PendingRecharges(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recharges": rows})
	}
}

// ResolveRechargeHandler approves or rejects the recharge named in the path
func ResolveRechargeHandler(l *ledger.Ledger, decision ledger.Decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, err := l.ResolveRecharge(c.Request.Context(), c.Param("id"), middleware.UserID(c), decision)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}
