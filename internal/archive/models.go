package archive

import (
	"canteen_system/internal/domain"
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// CardTransactionRecord mirrors one ledger transaction
type CardTransactionRecord struct {
	ID          string          `gorm:"primaryKey;size:64"`          // Transaction id
	CardID      string          `gorm:"size:64;index;not null"`      // Card the transaction belongs to
	Type        string          `gorm:"size:32;not null"`            // recharge or meal_purchase
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"` // Signed amount
	Description string          `gorm:"size:255"`                    // Free text
	Status      string          `gorm:"size:16;index;not null"`      // Lifecycle state
	ProcessedBy *string         `gorm:"size:64"`                     // Resolver or cashier id
	CreatedAt   time.Time       `gorm:"not null"`                    // Ledger timestamp
	Seq         uint64          `gorm:"not null"`                    // Store version of the last change written
	ArchivedAt  time.Time       `gorm:"not null"`                    // Last time the row was written
}

// TableName overrides the table name used by GORM
func (CardTransactionRecord) TableName() string { return "card_transactions" }

// CardBalanceRecord mirrors the latest known state of a card
type CardBalanceRecord struct {
	CardID     string          `gorm:"primaryKey;size:64"`          // Card id
	CardNumber string          `gorm:"size:32;uniqueIndex"`         // Printed card number
	StudentID  string          `gorm:"size:64;index"`               // Card owner
	Balance    decimal.Decimal `gorm:"type:decimal(12,2);not null"` // Balance after the last change
	IsActive   bool            // Card can pay
	LastUsed   *time.Time      // Last purchase
	Seq        uint64          `gorm:"not null"` // Store version of the last change written
	ArchivedAt time.Time       `gorm:"not null"` // Last time the row was written
}

// TableName overrides the table name used by GORM
func (CardBalanceRecord) TableName() string { return "card_balances" }

// NewTransactionRecord converts a ledger transaction as of store version seq
func NewTransactionRecord(t domain.Transaction, seq uint64, archivedAt time.Time) CardTransactionRecord {
	return CardTransactionRecord{
		ID:          t.ID,
		CardID:      t.CardID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		Status:      string(t.Status),
		ProcessedBy: t.ProcessedBy,
		CreatedAt:   t.CreatedAt,
		Seq:         seq,
		ArchivedAt:  archivedAt,
	}
}

// NewBalanceRecord converts a card as of store version seq
func NewBalanceRecord(c domain.MealCard, seq uint64, archivedAt time.Time) CardBalanceRecord {
	return CardBalanceRecord{
		CardID:     c.ID,
		CardNumber: c.CardNumber,
		StudentID:  c.StudentID,
		Balance:    c.Balance,
		IsActive:   c.IsActive,
		LastUsed:   c.LastUsed,
		Seq:        seq,
		ArchivedAt: archivedAt,
	}
}
