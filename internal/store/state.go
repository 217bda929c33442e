package store

import (
	"canteen_system/internal/domain"
	"strings"

	"github.com/shopspring/decimal"
)

// state holds the collections plus their foreign-key indexes.
type state struct {
	users       map[string]domain.User
	userByEmail map[string]string

	students        map[string]domain.Student
	studentOrder    []string
	studentByUser   map[string]string
	studentByNumber map[string]string

	cards         map[string]domain.MealCard
	cardOrder     []string
	cardByStudent map[string]string
	cardByNumber  map[string]string
	opening       map[string]decimal.Decimal

	txs      map[string]domain.Transaction
	txOrder  []string
	txByCard map[string][]string

	meals     map[string]domain.Meal
	mealOrder []string

	version uint64 // Committed updates so far
}

func newState() *state {
	return &state{
		users:           make(map[string]domain.User),
		userByEmail:     make(map[string]string),
		students:        make(map[string]domain.Student),
		studentByUser:   make(map[string]string),
		studentByNumber: make(map[string]string),
		cards:           make(map[string]domain.MealCard),
		cardByStudent:   make(map[string]string),
		cardByNumber:    make(map[string]string),
		opening:         make(map[string]decimal.Decimal),
		txs:             make(map[string]domain.Transaction),
		txByCard:        make(map[string][]string),
		meals:           make(map[string]domain.Meal),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cloneCard detaches the pointer fields of c from the stored record.
func cloneCard(c domain.MealCard) domain.MealCard {
	if c.LastUsed != nil {
		t := *c.LastUsed
		c.LastUsed = &t
	}
	return c
}

func cloneTransaction(t domain.Transaction) domain.Transaction {
	if t.ProcessedBy != nil {
		p := *t.ProcessedBy
		t.ProcessedBy = &p
	}
	return t
}
