// Package archive mirrors ledger changes into MySQL for auditing. The mirror
// is written, never read back; the in-memory store stays authoritative.
package archive

import (
	"canteen_system/internal/ledger"
	"canteen_system/internal/store"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/clause"  // Upsert clauses
	"gorm.io/gorm/logger"  // Silence GORM's own logger
)

// Open connects to MySQL
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the archive tables
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&CardTransactionRecord{}, &CardBalanceRecord{}); err != nil {
		return fmt.Errorf("migrate archive: %w", err)
	}
	return nil
}

// Archiver writes ledger events to the archive tables
type Archiver struct {
	db  *gorm.DB
	now func() time.Time
	log logrus.FieldLogger
}

// New creates an Archiver
func New(db *gorm.DB, log logrus.FieldLogger) *Archiver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Archiver{db: db, now: time.Now, log: log}
}

// Record upserts the event's transaction and card in one database
// transaction. It has the signature of a ledger hook.
func (a *Archiver) Record(ctx context.Context, ev ledger.Event) error {
	now := a.now()
	txRec := NewTransactionRecord(ev.Transaction, ev.Seq, now)
	cardRec := NewBalanceRecord(ev.Card, ev.Seq, now)

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertTransactions(tx, []CardTransactionRecord{txRec}).Error; err != nil {
			return err
		}
		return upsertBalances(tx, []CardBalanceRecord{cardRec}).Error
	})
	if err != nil {
		return fmt.Errorf("archive transaction %s: %w", ev.Transaction.ID, err)
	}
	a.log.WithFields(logrus.Fields{
		"transaction_id": ev.Transaction.ID,
		"card_id":        ev.Card.ID,
		"event":          ev.Kind,
		"seq":            ev.Seq,
	}).Debug("Archived ledger event")
	return nil
}

// Snapshot writes every card and transaction of the store. It is run once at
// start-up so the archive also holds the seeded history.
func (a *Archiver) Snapshot(ctx context.Context, s *store.Store) error {
	now := a.now()
	var (
		txRecs   []CardTransactionRecord
		cardRecs []CardBalanceRecord
	)
	_ = s.View(func(r store.Reader) error {
		seq := r.Version()
		for _, t := range r.Transactions() {
			txRecs = append(txRecs, NewTransactionRecord(t, seq, now))
		}
		for _, c := range r.Cards() {
			cardRecs = append(cardRecs, NewBalanceRecord(c, seq, now))
		}
		return nil
	})

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(txRecs) > 0 {
			if err := upsertTransactions(tx, txRecs).Error; err != nil {
				return err
			}
		}
		if len(cardRecs) > 0 {
			return upsertBalances(tx, cardRecs).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive snapshot: %w", err)
	}
	a.log.WithFields(logrus.Fields{
		"transactions": len(txRecs),
		"cards":        len(cardRecs),
	}).Info("Archive snapshot written")
	return nil
}

// upsertTransactions inserts or refreshes transaction rows. Status and
// processed_by change when a recharge is resolved. A row is only refreshed by
// a record with a higher seq, so late events cannot undo newer ones.
func upsertTransactions(db *gorm.DB, recs []CardTransactionRecord) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: newerOnly("status", "processed_by", "archived_at"),
	}).Create(&recs)
}

func upsertBalances(db *gorm.DB, recs []CardBalanceRecord) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}},
		DoUpdates: newerOnly("balance", "is_active", "last_used", "archived_at"),
	}).Create(&recs)
}

// newerOnly assigns each column from the incoming row when its seq is higher
// than the stored one. MySQL applies assignments left to right, so seq itself
// is assigned last.
func newerOnly(columns ...string) clause.Set {
	set := make(clause.Set, 0, len(columns)+1)
	for _, col := range columns {
		set = append(set, clause.Assignment{
			Column: clause.Column{Name: col},
			Value:  gorm.Expr(fmt.Sprintf("IF(VALUES(`seq`) > `seq`, VALUES(`%s`), `%s`)", col, col)),
		})
	}
	return append(set, clause.Assignment{
		Column: clause.Column{Name: "seq"},
		Value:  gorm.Expr("GREATEST(`seq`, VALUES(`seq`))"),
	})
}
