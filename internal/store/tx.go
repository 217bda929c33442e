package store

import (
	"canteen_system/internal/apperrors"
	"canteen_system/internal/domain"
)

// Tx is a write transaction. It reads its own writes.
type Tx struct {
	view
	undo []func()
}

// Seq is the store version this update commits as. It is the same for every
// change made through tx and larger than the Seq of every earlier update.
func (tx *Tx) Seq() uint64 {
	return tx.st.version + 1
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *Tx) onRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

// InsertUser adds a user. Ids and emails must be unique.
func (tx *Tx) InsertUser(u domain.User) error {
	st := tx.st
	if u.ID == "" {
		return apperrors.Validation("user id is required")
	}
	if !u.Role.Valid() {
		return apperrors.Validation("user %s has unknown role %q", u.ID, u.Role)
	}
	key := emailKey(u.Email)
	if key == "" {
		return apperrors.Validation("user %s has no email", u.ID)
	}
	if _, ok := st.users[u.ID]; ok {
		return apperrors.Validation("user %s already exists", u.ID)
	}
	if _, ok := st.userByEmail[key]; ok {
		return apperrors.Validation("email %s is already taken", u.Email)
	}

	st.users[u.ID] = u
	st.userByEmail[key] = u.ID
	tx.onRollback(func() {
		delete(st.users, u.ID)
		delete(st.userByEmail, key)
	})
	return nil
}

// PutUser replaces an existing user. The email is fixed.
func (tx *Tx) PutUser(u domain.User) error {
	st := tx.st
	prev, ok := st.users[u.ID]
	if !ok {
		return apperrors.NotFound("user %s not found", u.ID)
	}
	if emailKey(prev.Email) != emailKey(u.Email) {
		return apperrors.Validation("user %s email cannot change", u.ID)
	}
	if !u.Role.Valid() {
		return apperrors.Validation("user %s has unknown role %q", u.ID, u.Role)
	}

	st.users[u.ID] = u
	tx.onRollback(func() { st.users[u.ID] = prev })
	return nil
}

// InsertStudent adds a student linked to an existing user.
func (tx *Tx) InsertStudent(s domain.Student) error {
	st := tx.st
	if s.ID == "" || s.StudentNumber == "" {
		return apperrors.Validation("student id and number are required")
	}
	if _, ok := st.students[s.ID]; ok {
		return apperrors.Validation("student %s already exists", s.ID)
	}
	if _, ok := st.users[s.UserID]; !ok {
		return apperrors.NotFound("user %s not found for student %s", s.UserID, s.ID)
	}
	if other, ok := st.studentByUser[s.UserID]; ok {
		return apperrors.Validation("user %s is already linked to student %s", s.UserID, other)
	}
	if _, ok := st.studentByNumber[s.StudentNumber]; ok {
		return apperrors.Validation("student number %s is already taken", s.StudentNumber)
	}

	st.students[s.ID] = s
	st.studentOrder = append(st.studentOrder, s.ID)
	st.studentByUser[s.UserID] = s.ID
	st.studentByNumber[s.StudentNumber] = s.ID
	tx.onRollback(func() {
		delete(st.students, s.ID)
		st.studentOrder = st.studentOrder[:len(st.studentOrder)-1]
		delete(st.studentByUser, s.UserID)
		delete(st.studentByNumber, s.StudentNumber)
	})
	return nil
}

// InsertCard adds a meal card for a student that has none. The card's
// balance becomes its opening balance.
func (tx *Tx) InsertCard(c domain.MealCard) error {
	st := tx.st
	if c.ID == "" || c.CardNumber == "" {
		return apperrors.Validation("card id and number are required")
	}
	if c.Balance.IsNegative() {
		return apperrors.Validation("card %s has a negative balance", c.ID)
	}
	if _, ok := st.cards[c.ID]; ok {
		return apperrors.Validation("card %s already exists", c.ID)
	}
	if _, ok := st.students[c.StudentID]; !ok {
		return apperrors.NotFound("student %s not found for card %s", c.StudentID, c.ID)
	}
	if other, ok := st.cardByStudent[c.StudentID]; ok {
		return apperrors.Validation("student %s already holds card %s", c.StudentID, other)
	}
	if _, ok := st.cardByNumber[c.CardNumber]; ok {
		return apperrors.Validation("card number %s is already taken", c.CardNumber)
	}

	st.cards[c.ID] = cloneCard(c)
	st.cardOrder = append(st.cardOrder, c.ID)
	st.cardByStudent[c.StudentID] = c.ID
	st.cardByNumber[c.CardNumber] = c.ID
	st.opening[c.ID] = c.Balance
	tx.onRollback(func() {
		delete(st.cards, c.ID)
		st.cardOrder = st.cardOrder[:len(st.cardOrder)-1]
		delete(st.cardByStudent, c.StudentID)
		delete(st.cardByNumber, c.CardNumber)
		delete(st.opening, c.ID)
	})
	return nil
}

// PutCard replaces an existing card. Ownership and number are fixed.
func (tx *Tx) PutCard(c domain.MealCard) error {
	st := tx.st
	prev, ok := st.cards[c.ID]
	if !ok {
		return apperrors.NotFound("card %s not found", c.ID)
	}
	if prev.StudentID != c.StudentID || prev.CardNumber != c.CardNumber {
		return apperrors.Validation("card %s owner and number cannot change", c.ID)
	}
	if c.Balance.IsNegative() {
		return apperrors.InsufficientFunds("card %s balance cannot go negative", c.ID)
	}

	st.cards[c.ID] = cloneCard(c)
	tx.onRollback(func() { st.cards[c.ID] = prev })
	return nil
}

// AddTransaction appends a new transaction for an existing card. It does not
// touch the card balance.
func (tx *Tx) AddTransaction(t domain.Transaction) error {
	if err := tx.checkTransaction(t); err != nil {
		return err
	}
	tx.appendTransaction(t)
	return nil
}

// ImportTransaction records a historical transaction whose effect is already
// part of the card's balance. Completed amounts are moved out of the opening
// balance so the balance still equals opening plus completed amounts.
func (tx *Tx) ImportTransaction(t domain.Transaction) error {
	if err := tx.checkTransaction(t); err != nil {
		return err
	}
	tx.appendTransaction(t)
	if t.Affects() {
		st := tx.st
		prev := st.opening[t.CardID]
		st.opening[t.CardID] = prev.Sub(t.Amount)
		tx.onRollback(func() { st.opening[t.CardID] = prev })
	}
	return nil
}

// PutTransaction replaces an existing transaction. Card and type are fixed.
func (tx *Tx) PutTransaction(t domain.Transaction) error {
	st := tx.st
	prev, ok := st.txs[t.ID]
	if !ok {
		return apperrors.NotFound("transaction %s not found", t.ID)
	}
	if prev.CardID != t.CardID || prev.Type != t.Type {
		return apperrors.Validation("transaction %s card and type cannot change", t.ID)
	}
	if err := checkProcessedBy(t); err != nil {
		return err
	}

	st.txs[t.ID] = cloneTransaction(t)
	tx.onRollback(func() { st.txs[t.ID] = prev })
	return nil
}

// InsertMeal adds a catalog entry.
func (tx *Tx) InsertMeal(m domain.Meal) error {
	st := tx.st
	if m.ID == "" {
		return apperrors.Validation("meal id is required")
	}
	if !m.Price.IsPositive() {
		return apperrors.Validation("meal %s must have a positive price", m.ID)
	}
	if _, ok := st.meals[m.ID]; ok {
		return apperrors.Validation("meal %s already exists", m.ID)
	}

	st.meals[m.ID] = m
	st.mealOrder = append(st.mealOrder, m.ID)
	tx.onRollback(func() {
		delete(st.meals, m.ID)
		st.mealOrder = st.mealOrder[:len(st.mealOrder)-1]
	})
	return nil
}

func (tx *Tx) checkTransaction(t domain.Transaction) error {
	st := tx.st
	if t.ID == "" {
		return apperrors.Validation("transaction id is required")
	}
	if _, ok := st.txs[t.ID]; ok {
		return apperrors.Validation("transaction %s already exists", t.ID)
	}
	if _, ok := st.cards[t.CardID]; !ok {
		return apperrors.NotFound("card %s not found", t.CardID)
	}
	return checkProcessedBy(t)
}

// checkProcessedBy enforces that only resolved transactions name a resolver.
func checkProcessedBy(t domain.Transaction) error {
	resolved := t.Status == domain.StatusCompleted || t.Status == domain.StatusRejected
	if resolved != (t.ProcessedBy != nil) {
		return apperrors.Validation("transaction %s: processed_by must be set exactly when completed or rejected", t.ID)
	}
	return nil
}

func (tx *Tx) appendTransaction(t domain.Transaction) {
	st := tx.st
	st.txs[t.ID] = cloneTransaction(t)
	st.txOrder = append(st.txOrder, t.ID)
	st.txByCard[t.CardID] = append(st.txByCard[t.CardID], t.ID)
	tx.onRollback(func() {
		delete(st.txs, t.ID)
		st.txOrder = st.txOrder[:len(st.txOrder)-1]
		ids := st.txByCard[t.CardID]
		st.txByCard[t.CardID] = ids[:len(ids)-1]
	})
}
