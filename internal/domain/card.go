package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// MealCard Model
type MealCard struct {
	ID         string          `json:"id"`                  // Primary key
	StudentID  string          `json:"student_id"`          // One-to-one with Student
	CardNumber string          `json:"card_number"`         // Unique, used for cashier lookup
	Balance    decimal.Decimal `json:"balance"`             // Never negative
	IsActive   bool            `json:"is_active"`           // Inactive cards are hidden from lookup
	CreatedAt  time.Time       `json:"created_at"`          // Creation timestamp
	LastUsed   *time.Time      `json:"last_used,omitempty"` // Set on every purchase
}

// Meal Model
type Meal struct {
	ID          string          `json:"id"`           // Primary key
	Name        string          `json:"name"`         // Display name
	Price       decimal.Decimal `json:"price"`        // Positive unit price
	Category    string          `json:"category"`     // Menu category
	IsAvailable bool            `json:"is_available"` // Hidden from the menu when false
	Description string          `json:"description"`  // Short description
}
