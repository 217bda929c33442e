// Package ledger owns every change to a meal card balance and to the
// transaction records that explain it.
//
// Recharges are two-step: RequestRecharge records a pending deposit that does
// not touch the balance, ResolveRecharge approves (credits) or rejects it.
// Purchases are one-step: RecordPurchase and Checkout debit the card and
// record a completed transaction in the same store update, or do nothing.
package ledger

import (
	"canteen_system/internal/store"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Decision resolves a pending recharge
type Decision string

// Recharge decisions
const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// RechargeDescription is the description of every recharge request
const RechargeDescription = "Card recharge"

// Ledger applies recharge and purchase operations to the store
type Ledger struct {
	store   *store.Store
	ceiling decimal.Decimal
	now     func() time.Time
	newID   func() string
	log     logrus.FieldLogger
	hooks   []hook
}

// Option configures a Ledger
type Option func(*Ledger)

// WithCeiling sets the largest accepted recharge request. Zero disables the check.
func WithCeiling(max decimal.Decimal) Option {
	return func(l *Ledger) { l.ceiling = max }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs replaces the transaction id generator
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithHook registers a hook that runs after every successful commit
func WithHook(name string, h Hook) Option {
	return func(l *Ledger) { l.hooks = append(l.hooks, hook{name: name, fn: h}) }
}

// New creates a Ledger over s
func New(s *store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: s,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// commit runs fn in a store update and publishes the event it produced
func (l *Ledger) commit(ctx context.Context, fn func(tx *store.Tx) (Event, error)) (Event, error) {
	var ev Event
	err := l.store.Update(func(tx *store.Tx) error {
		var err error
		if ev, err = fn(tx); err != nil {
			return err
		}
		ev.Seq = tx.Seq()
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	l.publish(ctx, ev)
	return ev, nil
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
