package store

import (
	"canteen_system/internal/domain"

	"github.com/shopspring/decimal"
)

// Reader is the read side of the store. Every value returned is a copy,
// pointer fields included.
type Reader interface {
	// Version counts the updates committed so far. It changes whenever any
	// record changes.
	Version() uint64

	User(id string) (domain.User, bool)
	UserByEmail(email string) (domain.User, bool)

	Students() []domain.Student
	Student(id string) (domain.Student, bool)
	StudentByUser(userID string) (domain.Student, bool)

	Cards() []domain.MealCard
	Card(id string) (domain.MealCard, bool)
	CardByNumber(number string) (domain.MealCard, bool)
	CardByStudent(studentID string) (domain.MealCard, bool)
	// Opening is the balance a card had before any recorded transaction.
	Opening(cardID string) (decimal.Decimal, bool)

	// Transactions are returned in insertion order.
	Transactions() []domain.Transaction
	Transaction(id string) (domain.Transaction, bool)
	CardTransactions(cardID string) []domain.Transaction

	Meals() []domain.Meal
	Meal(id string) (domain.Meal, bool)
}

type view struct {
	st *state
}

func (v view) Version() uint64 {
	return v.st.version
}

func (v view) User(id string) (domain.User, bool) {
	u, ok := v.st.users[id]
	return u, ok
}

func (v view) UserByEmail(email string) (domain.User, bool) {
	id, ok := v.st.userByEmail[emailKey(email)]
	if !ok {
		return domain.User{}, false
	}
	return v.User(id)
}

func (v view) Students() []domain.Student {
	out := make([]domain.Student, 0, len(v.st.studentOrder))
	for _, id := range v.st.studentOrder {
		out = append(out, v.st.students[id])
	}
	return out
}

func (v view) Student(id string) (domain.Student, bool) {
	s, ok := v.st.students[id]
	return s, ok
}

func (v view) StudentByUser(userID string) (domain.Student, bool) {
	id, ok := v.st.studentByUser[userID]
	if !ok {
		return domain.Student{}, false
	}
	return v.Student(id)
}

func (v view) Cards() []domain.MealCard {
	out := make([]domain.MealCard, 0, len(v.st.cardOrder))
	for _, id := range v.st.cardOrder {
		out = append(out, cloneCard(v.st.cards[id]))
	}
	return out
}

func (v view) Card(id string) (domain.MealCard, bool) {
	c, ok := v.st.cards[id]
	return cloneCard(c), ok
}

func (v view) CardByNumber(number string) (domain.MealCard, bool) {
	id, ok := v.st.cardByNumber[number]
	if !ok {
		return domain.MealCard{}, false
	}
	return v.Card(id)
}

func (v view) CardByStudent(studentID string) (domain.MealCard, bool) {
	id, ok := v.st.cardByStudent[studentID]
	if !ok {
		return domain.MealCard{}, false
	}
	return v.Card(id)
}

func (v view) Opening(cardID string) (decimal.Decimal, bool) {
	o, ok := v.st.opening[cardID]
	return o, ok
}

func (v view) Transactions() []domain.Transaction {
	out := make([]domain.Transaction, 0, len(v.st.txOrder))
	for _, id := range v.st.txOrder {
		out = append(out, cloneTransaction(v.st.txs[id]))
	}
	return out
}

func (v view) Transaction(id string) (domain.Transaction, bool) {
	t, ok := v.st.txs[id]
	return cloneTransaction(t), ok
}

func (v view) CardTransactions(cardID string) []domain.Transaction {
	ids := v.st.txByCard[cardID]
	out := make([]domain.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneTransaction(v.st.txs[id]))
	}
	return out
}

func (v view) Meals() []domain.Meal {
	out := make([]domain.Meal, 0, len(v.st.mealOrder))
	for _, id := range v.st.mealOrder {
		out = append(out, v.st.meals[id])
	}
	return out
}

func (v view) Meal(id string) (domain.Meal, bool) {
	m, ok := v.st.meals[id]
	return m, ok
}
