package domain

import "github.com/shopspring/decimal" // Exact money arithmetic

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalStudents     int             `json:"total_students"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalTransactions int             `json:"total_transactions"`
	PendingRecharges  int             `json:"pending_recharges"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
	ActiveCards       int             `json:"active_cards"`
}

// StudentRow is a student joined with its user and card
type StudentRow struct {
	Student
	Name        string          `json:"name"`         // User name or "Unknown"
	Email       string          `json:"email"`        // User email or "Unknown"
	CardBalance decimal.Decimal `json:"card_balance"` // Zero when the student has no card
}

// TransactionRow is a transaction joined with its card and owner
type TransactionRow struct {
	Transaction
	StudentName string `json:"student_name"` // Owner name or "Unknown"
	CardNumber  string `json:"card_number"`  // Card number or "Unknown"
}

// CardHolder is what a cashier sees after scanning a card
type CardHolder struct {
	Student
	Name        string          `json:"name"`         // Owner name
	CardID      string          `json:"card_id"`      // Card primary key
	CardBalance decimal.Decimal `json:"card_balance"` // Current balance
}

// Unknown is the placeholder for joins that find no record
const Unknown = "Unknown"
