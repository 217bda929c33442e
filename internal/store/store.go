// Package store is the in-memory entity store of the canteen system.
//
// All reads go through View and all writes through Update. Update holds the
// write lock for the whole callback and undoes every change when the callback
// fails, so a reader never sees a transaction record without its balance
// effect.
package store

import "sync"

// Store owns users, students, meal cards, transactions and meals.
type Store struct {
	mu sync.RWMutex
	st *state
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// View runs fn against a consistent read-only snapshot of the store.
func (s *Store) View(fn func(r Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(view{st: s.st})
}

// Update runs fn with exclusive access. If fn returns an error (or panics)
// every change made through tx is rolled back.
func (s *Store) Update(fn func(tx *Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{view: view{st: s.st}}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.rollback()
		return err
	}
	s.st.version++
	return nil
}
