// Package seed loads the demo campus: staff and student accounts, their meal
// cards with some history, and the canteen menu.
package seed

import (
	"canteen_system/internal/domain"
	"canteen_system/internal/store"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Account is a demo login
type Account struct {
	User     domain.User
	Password string
}

// Accounts are the demo logins. Passwords are hashed when loaded.
var Accounts = []Account{
	{domain.User{ID: "1", Email: "admin@university.edu", Role: domain.RoleAdmin, Name: "John Admin", IsActive: true, CreatedAt: at("2024-01-01T00:00:00Z")}, "admin123"},
	{domain.User{ID: "2", Email: "manager@university.edu", Role: domain.RoleManager, Name: "Sarah Manager", IsActive: true, CreatedAt: at("2024-01-01T00:00:00Z")}, "manager123"},
	{domain.User{ID: "3", Email: "cashier@university.edu", Role: domain.RoleCashier, Name: "Mike Cashier", IsActive: true, CreatedAt: at("2024-01-01T00:00:00Z")}, "cashier123"},
	{domain.User{ID: "4", Email: "student@university.edu", Role: domain.RoleStudent, Name: "Emma Student", IsActive: true, CreatedAt: at("2024-01-01T00:00:00Z")}, "student123"},
	{domain.User{ID: "5", Email: "alice@university.edu", Role: domain.RoleStudent, Name: "Alice Johnson", IsActive: true, CreatedAt: at("2024-01-02T00:00:00Z")}, "student123"},
	{domain.User{ID: "6", Email: "bob@university.edu", Role: domain.RoleStudent, Name: "Bob Wilson", IsActive: true, CreatedAt: at("2024-01-03T00:00:00Z")}, "student123"},
}

// Students link student accounts to their records
var Students = []domain.Student{
	{ID: "s1", UserID: "4", StudentNumber: "STU001", YearLevel: "3rd Year", Department: "Computer Science"},
	{ID: "s2", UserID: "5", StudentNumber: "STU002", YearLevel: "2nd Year", Department: "Engineering"},
	{ID: "s3", UserID: "6", StudentNumber: "STU003", YearLevel: "4th Year", Department: "Business"},
}

// Cards carry the current balances, history included
var Cards = []domain.MealCard{
	{ID: "c1", StudentID: "s1", CardNumber: "MC001001", Balance: money("145.50"), IsActive: true, CreatedAt: at("2024-01-01T00:00:00Z"), LastUsed: atPtr("2024-01-15T12:30:00Z")},
	{ID: "c2", StudentID: "s2", CardNumber: "MC001002", Balance: money("89.25"), IsActive: true, CreatedAt: at("2024-01-02T00:00:00Z"), LastUsed: atPtr("2024-01-15T11:45:00Z")},
	{ID: "c3", StudentID: "s3", CardNumber: "MC001003", Balance: money("12.75"), IsActive: true, CreatedAt: at("2024-01-03T00:00:00Z"), LastUsed: atPtr("2024-01-14T13:20:00Z")},
}

// History is already reflected in the card balances
var History = []domain.Transaction{
	{ID: "t1", CardID: "c1", Type: domain.TypeRecharge, Amount: money("100.00"), Description: "Card recharge", Status: domain.StatusCompleted, ProcessedBy: ref("2"), CreatedAt: at("2024-01-15T10:00:00Z")},
	{ID: "t2", CardID: "c1", Type: domain.TypeMealPurchase, Amount: money("-15.50"), Description: "Chicken Rice + Drink", Status: domain.StatusCompleted, ProcessedBy: ref("3"), CreatedAt: at("2024-01-15T12:30:00Z")},
	{ID: "t3", CardID: "c2", Type: domain.TypeRecharge, Amount: money("50.00"), Description: "Card recharge", Status: domain.StatusPending, CreatedAt: at("2024-01-15T14:00:00Z")},
	{ID: "t4", CardID: "c2", Type: domain.TypeMealPurchase, Amount: money("-12.75"), Description: "Vegetable Curry", Status: domain.StatusCompleted, ProcessedBy: ref("3"), CreatedAt: at("2024-01-15T11:45:00Z")},
	{ID: "t5", CardID: "c3", Type: domain.TypeRecharge, Amount: money("75.00"), Description: "Card recharge", Status: domain.StatusPending, CreatedAt: at("2024-01-15T09:30:00Z")},
}

// Meals is the canteen menu
var Meals = []domain.Meal{
	{ID: "m1", Name: "Chicken Rice", Price: money("12.50"), Category: "Main Course", IsAvailable: true, Description: "Steamed chicken with fragrant rice"},
	{ID: "m2", Name: "Beef Noodles", Price: money("15.00"), Category: "Main Course", IsAvailable: true, Description: "Beef noodle soup with vegetables"},
	{ID: "m3", Name: "Vegetable Curry", Price: money("10.50"), Category: "Vegetarian", IsAvailable: true, Description: "Mixed vegetables in curry sauce"},
	{ID: "m4", Name: "Fish & Chips", Price: money("18.00"), Category: "Main Course", IsAvailable: true, Description: "Crispy fish with golden fries"},
	{ID: "m5", Name: "Green Tea", Price: money("3.00"), Category: "Beverages", IsAvailable: true, Description: "Hot green tea"},
	{ID: "m6", Name: "Fresh Juice", Price: money("4.50"), Category: "Beverages", IsAvailable: true, Description: "Daily fresh fruit juice"},
}

// Load inserts the demo data into s in a single update. cost is the bcrypt
// cost used for the demo passwords.
func Load(s *store.Store, cost int) error {
	users := make([]domain.User, 0, len(Accounts))
	for _, a := range Accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return fmt.Errorf("hash password of %s: %w", a.User.Email, err)
		}
		u := a.User
		u.PasswordHash = string(hash)
		users = append(users, u)
	}

	return s.Update(func(tx *store.Tx) error {
		for _, u := range users {
			if err := tx.InsertUser(u); err != nil {
				return err
			}
		}
		for _, st := range Students {
			if err := tx.InsertStudent(st); err != nil {
				return err
			}
		}
		for _, c := range Cards {
			if err := tx.InsertCard(c); err != nil {
				return err
			}
		}
		for _, t := range History {
			if err := tx.ImportTransaction(t); err != nil {
				return err
			}
		}
		for _, m := range Meals {
			if err := tx.InsertMeal(m); err != nil {
				return err
			}
		}
		return nil
	})
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func atPtr(s string) *time.Time {
	t := at(s)
	return &t
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ref(s string) *string {
	return &s
}
