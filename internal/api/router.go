// Package api exposes the canteen operations over HTTP. Every route except
// login needs a bearer token; each group admits only the roles that use it.
package api

import (
	"canteen_system/internal/auth"       // Credentials and tokens
	"canteen_system/internal/domain"     // Roles
	"canteen_system/internal/ledger"     // Balance changes
	"canteen_system/internal/middleware" // JWT and role checks
	"canteen_system/internal/query"      // Read models

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the services the handlers call
type Deps struct {
	Auth   *auth.Service
	Tokens *auth.Tokens
	Ledger *ledger.Ledger
	Query  *query.Service
}

// Register mounts every route on r
func Register(r gin.IRouter, d Deps) {
	jwt := middleware.JWTAuthMiddleware(d.Tokens)
	roles := func(rs ...domain.Role) gin.HandlerFunc { return middleware.RequireRoles(d.Auth, rs...) }

	// Auth routes
	r.POST("/auth/login", LoginHandler(d.Auth, d.Tokens))

	// Menu, any signed in user
	r.GET("/meals", jwt, roles(), MealsHandler(d.Query))

	student := r.Group("/student", jwt, roles(domain.RoleStudent))
	student.GET("/card", StudentCardHandler(d.Query))
	student.GET("/transactions", StudentTransactionsHandler(d.Query))
	student.POST("/recharges", RequestRechargeHandler(d.Query, d.Ledger))

	cashier := r.Group("/cashier", jwt, roles(domain.RoleCashier))
	cashier.GET("/cards/:cardNumber", CardLookupHandler(d.Query))
	cashier.POST("/purchases", PurchaseHandler(d.Ledger))
	cashier.POST("/checkout", CheckoutHandler(d.Ledger))

	manager := r.Group("/manager", jwt, roles(domain.RoleManager, domain.RoleAdmin))
	manager.GET("/recharges", PendingRechargesHandler(d.Query))
	manager.POST("/recharges/:id/approve", ResolveRechargeHandler(d.Ledger, ledger.Approve))
	manager.POST("/recharges/:id/reject", ResolveRechargeHandler(d.Ledger, ledger.Reject))

	admin := r.Group("/admin", jwt)
	admin.GET("/stats", roles(domain.RoleAdmin), StatsHandler(d.Query))
	admin.GET("/students", roles(domain.RoleAdmin), StudentsHandler(d.Query))
	admin.GET("/transactions", roles(domain.RoleAdmin), ListTransactionsHandler(d.Query))
	admin.GET("/cards/:cardNumber/transactions", roles(domain.RoleAdmin, domain.RoleCashier), CardTransactionsHandler(d.Query))
}
