package ledger

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// stepClock returns times one second apart.
func stepClock() func() time.Time {
	var n int64
	base := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&n, 1)) * time.Second)
	}
}

// seqIDs returns tx-1, tx-2, ...
func seqIDs() func() string {
	var n int64
	return func() string { return fmt.Sprintf("tx-%d", atomic.AddInt64(&n, 1)) }
}

// newStore seeds cards c1=100, c2=10, c3=50, c4=20 (inactive) and a small menu.
func newStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	cards := []struct {
		id, balance string
		active      bool
	}{{"c1", "100.00", true}, {"c2", "10.00", true}, {"c3", "50.00", true}, {"c4", "20.00", false}}

	err := s.Update(func(tx *store.Tx) error {
		for i, c := range cards {
			uid, sid := fmt.Sprintf("u%d", i+1), fmt.Sprintf("s%d", i+1)
			if err := tx.InsertUser(domain.User{ID: uid, Email: uid + "@university.edu", Role: domain.RoleStudent, IsActive: true}); err != nil {
				return err
			}
			if err := tx.InsertStudent(domain.Student{ID: sid, UserID: uid, StudentNumber: "STU" + sid}); err != nil {
				return err
			}
			if err := tx.InsertCard(domain.MealCard{ID: c.id, StudentID: sid, CardNumber: "MC-" + c.id, Balance: d(c.balance), IsActive: c.active}); err != nil {
				return err
			}
		}
		meals := []domain.Meal{
			{ID: "m1", Name: "Chicken Rice", Price: d("12.50"), IsAvailable: true},
			{ID: "m5", Name: "Green Tea", Price: d("3.00"), IsAvailable: true},
			{ID: "m9", Name: "Seasonal Soup", Price: d("6.00"), IsAvailable: false},
		}
		for _, m := range meals {
			if err := tx.InsertMeal(m); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return s
}

func newLedger(s *store.Store, opts ...Option) *Ledger {
	base := []Option{WithClock(stepClock()), WithIDs(seqIDs()), WithLogger(quietLogger()), WithCeiling(d("500"))}
	return New(s, append(base, opts...)...)
}

func card(t *testing.T, s *store.Store, id string) domain.MealCard {
	t.Helper()
	var c domain.MealCard
	_ = s.View(func(r store.Reader) error {
		var ok bool
		c, ok = r.Card(id)
		require.True(t, ok, "card %s", id)
		return nil
	})
	return c
}

func txn(t *testing.T, s *store.Store, id string) domain.Transaction {
	t.Helper()
	var tr domain.Transaction
	_ = s.View(func(r store.Reader) error {
		var ok bool
		tr, ok = r.Transaction(id)
		require.True(t, ok, "transaction %s", id)
		return nil
	})
	return tr
}

func txCount(s *store.Store) int {
	var n int
	_ = s.View(func(r store.Reader) error {
		n = len(r.Transactions())
		return nil
	})
	return n
}

// checkBalances asserts balance == opening + completed amounts and balance >= 0 for every card.
func checkBalances(t *testing.T, s *store.Store) {
	t.Helper()
	_ = s.View(func(r store.Reader) error {
		for _, c := range r.Cards() {
			sum, ok := r.Opening(c.ID)
			require.True(t, ok)
			for _, tr := range r.CardTransactions(c.ID) {
				if tr.Affects() {
					sum = sum.Add(tr.Amount)
				}
			}
			assert.True(t, c.Balance.Equal(sum), "card %s balance %s, ledger says %s", c.ID, c.Balance, sum)
			assert.False(t, c.Balance.IsNegative(), "card %s negative", c.ID)
		}
		return nil
	})
}

func TestRechargeApproveThenReject(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	// Approve a pending recharge.
	id, err := l.RequestRecharge(ctx, "c1", d("50"))
	require.NoError(t, err)
	pending := txn(t, s, id)
	assert.Equal(t, domain.StatusPending, pending.Status)
	assert.Equal(t, domain.TypeRecharge, pending.Type)
	assert.Equal(t, RechargeDescription, pending.Description)
	assert.Nil(t, pending.ProcessedBy)
	assert.True(t, card(t, s, "c1").Balance.Equal(d("100")), "pending recharge must not move the balance")

	done, err := l.ResolveRecharge(ctx, id, "mgr1", Approve)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	require.NotNil(t, done.ProcessedBy)
	assert.Equal(t, "mgr1", *done.ProcessedBy)
	assert.True(t, card(t, s, "c1").Balance.Equal(d("150")))

	// Reject a second one.
	id2, err := l.RequestRecharge(ctx, "c1", d("30"))
	require.NoError(t, err)
	rejected, err := l.ResolveRecharge(ctx, id2, "mgr1", Reject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.ProcessedBy)
	assert.True(t, card(t, s, "c1").Balance.Equal(d("150")))

	checkBalances(t, s)
}

func TestResolveRechargeTwiceFails(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	id, err := l.RequestRecharge(ctx, "c2", d("40"))
	require.NoError(t, err)
	_, err = l.ResolveRecharge(ctx, id, "mgr1", Approve)
	require.NoError(t, err)

	_, err = l.ResolveRecharge(ctx, id, "mgr1", Approve)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	_, err = l.ResolveRecharge(ctx, id, "mgr2", Reject)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	assert.True(t, card(t, s, "c2").Balance.Equal(d("50")), "applied exactly once")
	assert.Equal(t, domain.StatusCompleted, txn(t, s, id).Status)
}

func TestResolveRechargeErrors(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	_, err := l.ResolveRecharge(ctx, "missing", "mgr1", Approve)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	purchase, err := l.RecordPurchase(ctx, "c1", d("5"), "tea", "cashier1")
	require.NoError(t, err)
	_, err = l.ResolveRecharge(ctx, purchase.ID, "mgr1", Approve)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	id, err := l.RequestRecharge(ctx, "c1", d("5"))
	require.NoError(t, err)
	_, err = l.ResolveRecharge(ctx, id, "mgr1", Decision("maybe"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = l.ResolveRecharge(ctx, id, "", Approve)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, domain.StatusPending, txn(t, s, id).Status)
}

func TestRequestRechargeValidation(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	for _, amt := range []string{"0", "-10", "500.01"} {
		_, err := l.RequestRecharge(ctx, "c1", d(amt))
		assert.ErrorIs(t, err, apperrors.ErrValidation, "amount %s", amt)
	}
	_, err := l.RequestRecharge(ctx, "nope", d("10"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 0, txCount(s))

	_, err = l.RequestRecharge(ctx, "c1", d("500"))
	assert.NoError(t, err, "the ceiling itself is allowed")

	unbounded := newLedger(s, WithCeiling(decimal.Zero))
	_, err = unbounded.RequestRecharge(ctx, "c1", d("10000"))
	assert.NoError(t, err)
}

func TestPurchaseInsufficientFundsChangesNothing(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	_, err := l.RecordPurchase(ctx, "c2", d("15.00"), "lunch", "cashier1")
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	c := card(t, s, "c2")
	assert.True(t, c.Balance.Equal(d("10.00")))
	assert.Nil(t, c.LastUsed)
	assert.Equal(t, 0, txCount(s))
}

func TestPurchaseDebitsCard(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	tr, err := l.RecordPurchase(ctx, "c3", d("20.00"), "lunch", "cashier1")
	require.NoError(t, err)

	assert.True(t, tr.Amount.Equal(d("-20.00")))
	assert.Equal(t, domain.StatusCompleted, tr.Status)
	assert.Equal(t, domain.TypeMealPurchase, tr.Type)
	assert.Equal(t, "lunch", tr.Description)
	require.NotNil(t, tr.ProcessedBy)
	assert.Equal(t, "cashier1", *tr.ProcessedBy)

	c := card(t, s, "c3")
	assert.True(t, c.Balance.Equal(d("30.00")))
	require.NotNil(t, c.LastUsed)
	assert.Equal(t, tr.CreatedAt, *c.LastUsed)

	// Draining to exactly zero is allowed.
	_, err = l.RecordPurchase(ctx, "c3", d("30"), "dinner", "cashier1")
	require.NoError(t, err)
	assert.True(t, card(t, s, "c3").Balance.IsZero())
	checkBalances(t, s)
}

func TestPurchaseValidation(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	cases := []struct {
		name, card, amount, desc, cashier string
		kind                              error
	}{
		{"zero amount", "c1", "0", "lunch", "k1", apperrors.ErrValidation},
		{"negative amount", "c1", "-1", "lunch", "k1", apperrors.ErrValidation},
		{"blank description", "c1", "1", "   ", "k1", apperrors.ErrValidation},
		{"no cashier", "c1", "1", "lunch", "", apperrors.ErrValidation},
		{"unknown card", "c99", "1", "lunch", "k1", apperrors.ErrNotFound},
		{"inactive card", "c4", "1", "lunch", "k1", apperrors.ErrInvalidState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.RecordPurchase(ctx, tc.card, d(tc.amount), tc.desc, tc.cashier)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
	assert.Equal(t, 0, txCount(s))
	assert.True(t, card(t, s, "c4").Balance.Equal(d("20")))
}

func TestCheckout(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	tr, err := l.Checkout(ctx, "c1", []LineItem{{MealID: "m1", Quantity: 1}, {MealID: "m5", Quantity: 1}, {MealID: "m1", Quantity: 1}}, "cashier1")
	require.NoError(t, err)

	assert.True(t, tr.Amount.Equal(d("-28.00")))
	assert.Equal(t, "Chicken Rice x2, Green Tea", tr.Description)
	assert.True(t, card(t, s, "c1").Balance.Equal(d("72.00")))
	checkBalances(t, s)
}

func TestCheckoutRejectsBadCarts(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	_, err := l.Checkout(ctx, "c1", nil, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = l.Checkout(ctx, "c1", []LineItem{{MealID: "m9", Quantity: 1}}, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "unavailable meal")

	_, err = l.Checkout(ctx, "c1", []LineItem{{MealID: "ghost", Quantity: 1}}, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = l.Checkout(ctx, "c1", []LineItem{{MealID: "m1", Quantity: 0}}, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = l.Checkout(ctx, "c2", []LineItem{{MealID: "m1", Quantity: 1}}, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	assert.Equal(t, 0, txCount(s))
	assert.True(t, card(t, s, "c2").Balance.Equal(d("10")))
}

func TestCheckoutQuantityLimit(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	// Merged lines that would wrap around an int must not turn into a credit.
	_, err := l.Checkout(ctx, "c2", []LineItem{{MealID: "m5", Quantity: math.MaxInt}, {MealID: "m5", Quantity: math.MaxInt}}, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = l.Checkout(ctx, "c1", []LineItem{{MealID: "m5", Quantity: MaxQuantity}, {MealID: "m5", Quantity: 1}}, "cashier1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Equal(t, 0, txCount(s))
	assert.True(t, card(t, s, "c2").Balance.Equal(d("10")))
	assert.True(t, card(t, s, "c1").Balance.Equal(d("100")))

	tr, err := l.Checkout(ctx, "c3", []LineItem{{MealID: "m5", Quantity: 10}, {MealID: "m5", Quantity: 6}}, "cashier1")
	require.NoError(t, err)
	assert.True(t, tr.Amount.Equal(d("-48")))
	assert.Equal(t, "Green Tea x16", tr.Description)
	checkBalances(t, s)
}

func TestDebitRejectsNonPositiveAmounts(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	for _, amount := range []string{"0", "-6"} {
		err := s.Update(func(tx *store.Tx) error {
			_, err := l.debit(tx, "c2", d(amount), "Green Tea", "cashier1")
			return err
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation, amount)
	}
	assert.Equal(t, 0, txCount(s))
	assert.True(t, card(t, s, "c2").Balance.Equal(d("10")))
}

func TestHooksSeeCommittedEvents(t *testing.T) {
	s := newStore(t)
	var (
		mu    sync.Mutex
		kinds []EventKind
		seqs  []uint64
	)
	record := func(_ context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, ev.Kind)
		seqs = append(seqs, ev.Seq)
		if ev.Kind == EventRechargeApproved {
			assert.True(t, ev.Card.Balance.Equal(d("110")), "hook sees the card after the change")
		}
		return nil
	}
	failing := func(context.Context, Event) error { return errors.New("archive down") }
	l := newLedger(s, WithHook("record", record), WithHook("failing", failing))

	id, err := l.RequestRecharge(ctx, "c1", d("10"))
	require.NoError(t, err)
	_, err = l.ResolveRecharge(ctx, id, "mgr1", Approve)
	require.NoError(t, err, "hook errors do not fail the operation")
	_, err = l.RecordPurchase(ctx, "c1", d("1"), "tea", "k1")
	require.NoError(t, err)
	_, err = l.RecordPurchase(ctx, "c2", d("100"), "feast", "k1")
	require.Error(t, err)

	assert.Equal(t, []EventKind{EventRechargeRequested, EventRechargeApproved, EventPurchaseRecorded}, kinds)
	require.Len(t, seqs, 3)
	assert.Less(t, seqs[0], seqs[1])
	assert.Less(t, seqs[1], seqs[2])
	_ = s.View(func(r store.Reader) error {
		assert.Equal(t, seqs[2], r.Version(), "the last event carries the current version")
		return nil
	})
}

func TestRandomOperationsKeepBalancesConsistent(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)
	rng := rand.New(rand.NewSource(42))
	cards := []string{"c1", "c2", "c3", "c4"}
	var pending []string

	for i := 0; i < 500; i++ {
		c := cards[rng.Intn(len(cards))]
		amount := decimal.New(int64(rng.Intn(6000)+1), -2) // 0.01 .. 60.00
		switch rng.Intn(3) {
		case 0:
			if id, err := l.RequestRecharge(ctx, c, amount); err == nil {
				pending = append(pending, id)
			}
		case 1:
			if len(pending) == 0 {
				continue
			}
			k := rng.Intn(len(pending))
			dec := Approve
			if rng.Intn(2) == 0 {
				dec = Reject
			}
			_, err := l.ResolveRecharge(ctx, pending[k], "mgr", dec)
			require.NoError(t, err)
			pending = append(pending[:k], pending[k+1:]...)
		case 2:
			_, err := l.RecordPurchase(ctx, c, amount, "meal", "k1")
			if err != nil {
				require.True(t, errors.Is(err, apperrors.ErrInsufficientFunds) || errors.Is(err, apperrors.ErrInvalidState), "unexpected %v", err)
			}
		}
		checkBalances(t, s)
	}
}

func TestConcurrentPurchasesNeverOverdraw(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	const workers = 100
	var (
		wg           sync.WaitGroup
		ok, declined int64
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := l.RecordPurchase(ctx, "c3", d("1"), "candy", "k1")
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, apperrors.ErrInsufficientFunds):
				atomic.AddInt64(&declined, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, ok)
	assert.EqualValues(t, 50, declined)
	assert.True(t, card(t, s, "c3").Balance.IsZero())
	assert.Equal(t, 50, txCount(s))
	checkBalances(t, s)
}

func TestConcurrentApproveAndPurchase(t *testing.T) {
	s := newStore(t)
	l := newLedger(s)

	var ids []string
	for i := 0; i < 20; i++ {
		id, err := l.RequestRecharge(ctx, "c2", d("5"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_, err := l.ResolveRecharge(ctx, id, "mgr", Approve)
			assert.NoError(t, err)
		}(id)
		go func() {
			defer wg.Done()
			_, _ = l.RecordPurchase(ctx, "c2", d("3"), "snack", "k1")
		}()
	}
	wg.Wait()

	checkBalances(t, s)
}
