package ledger

import (
	"canteen_system/internal/domain"
	"context"

	"github.com/sirupsen/logrus"
)

// EventKind names a committed ledger change
type EventKind string

// Event kinds
const (
	EventRechargeRequested EventKind = "recharge_requested"
	EventRechargeApproved  EventKind = "recharge_approved"
	EventRechargeRejected  EventKind = "recharge_rejected"
	EventPurchaseRecorded  EventKind = "purchase_recorded"
)

// Event describes a committed change: the transaction as stored and the card
// as it is after the change. Hooks run after the store lock is released, so
// two events may reach a hook out of order; Seq is the store version of the
// commit and orders them.
type Event struct {
	Kind        EventKind
	Transaction domain.Transaction
	Card        domain.MealCard
	Seq         uint64
}

// Hook reacts to a committed change. Errors are logged, never returned to the
// caller of the ledger operation.
type Hook func(ctx context.Context, ev Event) error

type hook struct {
	name string
	fn   Hook
}

func (l *Ledger) publish(ctx context.Context, ev Event) {
	for _, h := range l.hooks {
		if err := h.fn(ctx, ev); err != nil {
			l.log.WithFields(logrus.Fields{
				"hook":           h.name,
				"event":          ev.Kind,
				"transaction_id": ev.Transaction.ID,
				"error":          err.Error(),
			}).Warn("Ledger hook failed")
		}
	}
}
