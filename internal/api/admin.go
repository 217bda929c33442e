package api

import (
	"canteen_system/internal/apperrors" // Error kinds
	"canteen_system/internal/domain"    // Domain models
	"canteen_system/internal/query"     // Read models
	"net/http"                          // HTTP status codes
	"strconv"                           // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// StatsHandler returns the dashboard figures
func StatsHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := q.DashboardStats(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// StudentsHandler searches the student roster with name, email and balance.
// Query parameters: q, sort, order, with_purchases, page, page_size.
func StudentsHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		withPurchases, err := strconv.ParseBool(c.DefaultQuery("with_purchases", "false"))
		if err != nil {
			respondError(c, apperrors.Validation("with_purchases must be true or false"))
			return
		}
		result, err := q.SearchStudents(c.Request.Context(), query.StudentFilter{
			Search:        c.Query("q"),
			Sort:          c.Query("sort"),
			Order:         c.Query("order"),
			WithPurchases: withPurchases,
			Page:          page,
			PageSize:      pageSize,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// ListTransactionsHandler filters and paginates all transactions.
// Query parameters: type, status, q, page, page_size.
func ListTransactionsHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		result, err := q.ListTransactions(c.Request.Context(), query.Filter{
			Type:     domain.TransactionType(c.Query("type")),
			Status:   domain.TransactionStatus(c.Query("status")),
			Search:   c.Query("q"),
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// pageParams reads page and page_size, falling back to the first default page
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1 // Default page number
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(query.DefaultPageSize)))
	if err != nil {
		pageSize = query.DefaultPageSize
	}
	return page, pageSize
}

// CardTransactionsHandler returns the history of one card
func CardTransactionsHandler(q *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := q.TransactionsByCard(c.Request.Context(), c.Param("cardNumber"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": rows})
	}
}
