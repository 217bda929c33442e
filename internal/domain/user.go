package domain

import "time" // Timestamps

// Role is the access role of a user
type Role string

// Supported roles
const (
	RoleAdmin   Role = "admin"   // Views reports
	RoleManager Role = "manager" // Approves or rejects recharges
	RoleCashier Role = "cashier" // Charges cards for purchases
	RoleStudent Role = "student" // Owns a meal card
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleStudent:
		return true
	}
	return false
}

// User Model
type User struct {
	ID           string    `json:"id"`         // Primary key
	Email        string    `json:"email"`      // Unique login email
	PasswordHash string    `json:"-"`          // Bcrypt hash, never serialized
	Role         Role      `json:"role"`       // Access role
	Name         string    `json:"name"`       // Display name
	IsActive     bool      `json:"is_active"`  // Inactive users cannot log in
	CreatedAt    time.Time `json:"created_at"` // Creation timestamp
}

// Student Model
type Student struct {
	ID            string `json:"id"`             // Primary key
	UserID        string `json:"user_id"`        // One-to-one with User
	StudentNumber string `json:"student_number"` // Unique, human-facing
	YearLevel     string `json:"year_level"`     // e.g. "3rd Year"
	Department    string `json:"department"`     // Department name
}
