package ledger

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LineItem is one cart entry of a checkout
type LineItem struct {
	MealID   string `json:"meal_id"`
	Quantity int    `json:"quantity"`
}

// MaxQuantity is the largest quantity of one meal in a single checkout
const MaxQuantity = 1000

// RecordPurchase charges amount to the card on behalf of cashierID. On any
// failure nothing changes; a balance below amount yields
// ErrInsufficientFunds.
func (l *Ledger) RecordPurchase(ctx context.Context, cardID string, amount decimal.Decimal, description, cashierID string) (domain.Transaction, error) {
	description = strings.TrimSpace(description)
	if !amount.IsPositive() {
		return domain.Transaction{}, apperrors.Validation("purchase amount must be greater than zero")
	}
	if description == "" {
		return domain.Transaction{}, apperrors.Validation("purchase description is required")
	}
	if cashierID == "" {
		return domain.Transaction{}, apperrors.Validation("cashier is required")
	}

	ev, err := l.commit(ctx, func(tx *store.Tx) (Event, error) {
		return l.debit(tx, cardID, amount, description, cashierID)
	})
	return l.purchaseResult(ev, err, cardID, amount, cashierID)
}

// Checkout prices the cart from the meal catalog and charges the total as a
// single purchase. Repeated meals are merged.
func (l *Ledger) Checkout(ctx context.Context, cardID string, items []LineItem, cashierID string) (domain.Transaction, error) {
	if len(items) == 0 {
		return domain.Transaction{}, apperrors.Validation("cart is empty")
	}
	if cashierID == "" {
		return domain.Transaction{}, apperrors.Validation("cashier is required")
	}

	var total decimal.Decimal
	ev, err := l.commit(ctx, func(tx *store.Tx) (Event, error) {
		var (
			order []string
			qty   = make(map[string]int)
		)
		for _, it := range items {
			if it.Quantity <= 0 {
				return Event{}, apperrors.Validation("quantity of meal %s must be positive", it.MealID)
			}
			prev, seen := qty[it.MealID]
			if it.Quantity > MaxQuantity-prev {
				return Event{}, apperrors.Validation("quantity of meal %s must not exceed %d", it.MealID, MaxQuantity)
			}
			if !seen {
				order = append(order, it.MealID)
			}
			qty[it.MealID] = prev + it.Quantity
		}

		total = decimal.Zero
		parts := make([]string, 0, len(order))
		for _, id := range order {
			meal, ok := tx.Meal(id)
			if !ok || !meal.IsAvailable {
				return Event{}, apperrors.Validation("meal %s is not available", id)
			}
			n := qty[id]
			total = total.Add(meal.Price.Mul(decimal.NewFromInt(int64(n))))
			if n == 1 {
				parts = append(parts, meal.Name)
			} else {
				parts = append(parts, fmt.Sprintf("%s x%d", meal.Name, n))
			}
		}
		return l.debit(tx, cardID, total, strings.Join(parts, ", "), cashierID)
	})
	return l.purchaseResult(ev, err, cardID, total, cashierID)
}

// debit applies a purchase inside an open store update.
func (l *Ledger) debit(tx *store.Tx, cardID string, amount decimal.Decimal, description, cashierID string) (Event, error) {
	if !amount.IsPositive() {
		return Event{}, apperrors.Validation("purchase amount must be greater than zero")
	}
	card, ok := tx.Card(cardID)
	if !ok {
		return Event{}, apperrors.NotFound("card %s not found", cardID)
	}
	if !card.IsActive {
		return Event{}, apperrors.InvalidState("card %s is inactive", cardID)
	}
	if card.Balance.LessThan(amount) {
		return Event{}, apperrors.InsufficientFunds("insufficient balance: card %s has %s, purchase needs %s",
			card.CardNumber, card.Balance.StringFixed(2), amount.StringFixed(2))
	}

	now := l.now()
	card.Balance = card.Balance.Sub(amount)
	card.LastUsed = timePtr(now)
	if err := tx.PutCard(card); err != nil {
		return Event{}, err
	}

	t := domain.Transaction{
		ID:          l.newID(),
		CardID:      card.ID,
		Type:        domain.TypeMealPurchase,
		Amount:      amount.Neg(),
		Description: description,
		Status:      domain.StatusCompleted,
		ProcessedBy: strPtr(cashierID),
		CreatedAt:   now,
	}
	if err := tx.AddTransaction(t); err != nil {
		return Event{}, err
	}
	return Event{Kind: EventPurchaseRecorded, Transaction: t, Card: card}, nil
}

func (l *Ledger) purchaseResult(ev Event, err error, cardID string, amount decimal.Decimal, cashierID string) (domain.Transaction, error) {
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"card_id":    cardID,
			"cashier_id": cashierID,
			"amount":     amount.String(),
			"error":      err.Error(),
		}).Warn("Purchase failed")
		return domain.Transaction{}, err
	}

	l.log.WithFields(logrus.Fields{
		"card_id":        cardID,
		"cashier_id":     cashierID,
		"transaction_id": ev.Transaction.ID,
		"amount":         ev.Transaction.Amount.String(),
		"balance":        ev.Card.Balance.String(),
		"type":           domain.TypeMealPurchase,
		"timestamp":      ev.Transaction.CreatedAt.Format(time.RFC3339),
	}).Info("Purchase transaction")
	return ev.Transaction, nil
}
