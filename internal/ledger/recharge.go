package ledger

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RequestRecharge records a pending recharge of amount on the card and
// returns the new transaction id. The balance is not touched until the
// request is approved.
func (l *Ledger) RequestRecharge(ctx context.Context, cardID string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", apperrors.Validation("recharge amount must be greater than zero")
	}
	if l.ceiling.IsPositive() && amount.GreaterThan(l.ceiling) {
		return "", apperrors.Validation("recharge amount must not exceed %s", l.ceiling)
	}

	ev, err := l.commit(ctx, func(tx *store.Tx) (Event, error) {
		card, ok := tx.Card(cardID)
		if !ok {
			return Event{}, apperrors.NotFound("card %s not found", cardID)
		}
		t := domain.Transaction{
			ID:          l.newID(),
			CardID:      card.ID,
			Type:        domain.TypeRecharge,
			Amount:      amount,
			Description: RechargeDescription,
			Status:      domain.StatusPending,
			CreatedAt:   l.now(),
		}
		if err := tx.AddTransaction(t); err != nil {
			return Event{}, err
		}
		return Event{Kind: EventRechargeRequested, Transaction: t, Card: card}, nil
	})
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"card_id": cardID,
			"amount":  amount.String(),
			"error":   err.Error(),
		}).Warn("Recharge request failed")
		return "", err
	}

	l.log.WithFields(logrus.Fields{
		"card_id":        cardID,
		"transaction_id": ev.Transaction.ID,
		"amount":         amount.String(),
		"type":           domain.TypeRecharge,
		"timestamp":      ev.Transaction.CreatedAt.Format(time.RFC3339),
	}).Info("Recharge requested")
	return ev.Transaction.ID, nil
}

// ResolveRecharge approves or rejects a pending recharge on behalf of
// resolverID. Approval credits the card in the same update. A transaction can
// be resolved once; later calls fail with ErrInvalidState.
func (l *Ledger) ResolveRecharge(ctx context.Context, txID, resolverID string, decision Decision) (domain.Transaction, error) {
	if decision != Approve && decision != Reject {
		return domain.Transaction{}, apperrors.Validation("unknown decision %q", decision)
	}
	if resolverID == "" {
		return domain.Transaction{}, apperrors.Validation("resolver is required")
	}

	ev, err := l.commit(ctx, func(tx *store.Tx) (Event, error) {
		t, ok := tx.Transaction(txID)
		if !ok {
			return Event{}, apperrors.NotFound("transaction %s not found", txID)
		}
		if t.Type != domain.TypeRecharge {
			return Event{}, apperrors.InvalidState("transaction %s is not a recharge", txID)
		}
		if t.Status != domain.StatusPending {
			return Event{}, apperrors.InvalidState("transaction %s is already %s", txID, t.Status)
		}
		card, ok := tx.Card(t.CardID)
		if !ok {
			return Event{}, apperrors.NotFound("card %s not found", t.CardID)
		}

		t.ProcessedBy = strPtr(resolverID)
		kind := EventRechargeRejected
		t.Status = domain.StatusRejected
		if decision == Approve {
			kind = EventRechargeApproved
			t.Status = domain.StatusCompleted
			card.Balance = card.Balance.Add(t.Amount)
			if err := tx.PutCard(card); err != nil {
				return Event{}, err
			}
		}
		if err := tx.PutTransaction(t); err != nil {
			return Event{}, err
		}
		return Event{Kind: kind, Transaction: t, Card: card}, nil
	})
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"transaction_id": txID,
			"resolver_id":    resolverID,
			"decision":       decision,
			"error":          err.Error(),
		}).Warn("Recharge resolution failed")
		return domain.Transaction{}, err
	}

	l.log.WithFields(logrus.Fields{
		"transaction_id": txID,
		"card_id":        ev.Card.ID,
		"resolver_id":    resolverID,
		"status":         ev.Transaction.Status,
		"amount":         ev.Transaction.Amount.String(),
		"balance":        ev.Card.Balance.String(),
	}).Info("Recharge resolved")
	return ev.Transaction, nil
}
