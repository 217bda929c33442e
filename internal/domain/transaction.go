package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// TransactionType distinguishes deposits from debits
type TransactionType string

// Transaction types
const (
	TypeRecharge     TransactionType = "recharge"      // Positive amount, needs approval
	TypeMealPurchase TransactionType = "meal_purchase" // Negative amount, applied immediately
)

// TransactionStatus is the lifecycle state of a transaction
type TransactionStatus string

// Transaction statuses
const (
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved" // Reserved: no operation produces it
	StatusCompleted TransactionStatus = "completed"
	StatusRejected  TransactionStatus = "rejected"
)

// Transaction Model
type Transaction struct {
	ID          string            `json:"id"`                     // Primary key
	CardID      string            `json:"card_id"`                // Foreign key to MealCard
	Type        TransactionType   `json:"type"`                   // recharge or meal_purchase
	Amount      decimal.Decimal   `json:"amount"`                 // Signed amount
	Description string            `json:"description"`            // Free text
	Status      TransactionStatus `json:"status"`                 // Lifecycle state
	ProcessedBy *string           `json:"processed_by,omitempty"` // Resolver or cashier id
	CreatedAt   time.Time         `json:"created_at"`             // Creation timestamp
}

// Affects reports whether the transaction counts towards the card balance
func (t Transaction) Affects() bool {
	return t.Status == StatusCompleted
}
