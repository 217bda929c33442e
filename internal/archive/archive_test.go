package archive

import (
	"canteen_system/internal/domain"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dryRun builds a GORM handle that renders SQL without connecting.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "canteen:secret@tcp(127.0.0.1:3306)/canteen?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db
}

var (
	at      = time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)
	cashier = "3"
)

func TestNewTransactionRecord(t *testing.T) {
	tx := domain.Transaction{
		ID: "t2", CardID: "c1", Type: domain.TypeMealPurchase, Amount: decimal.RequireFromString("-15.50"),
		Description: "Chicken Rice + Drink", Status: domain.StatusCompleted, ProcessedBy: &cashier, CreatedAt: at,
	}
	now := at.Add(time.Minute)

	rec := NewTransactionRecord(tx, 7, now)
	assert.Equal(t, "t2", rec.ID)
	assert.Equal(t, "meal_purchase", rec.Type)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, "-15.5", rec.Amount.String())
	require.NotNil(t, rec.ProcessedBy)
	assert.Equal(t, "3", *rec.ProcessedBy)
	assert.Equal(t, at, rec.CreatedAt)
	assert.Equal(t, uint64(7), rec.Seq)
	assert.Equal(t, now, rec.ArchivedAt)
}

func TestNewBalanceRecord(t *testing.T) {
	card := domain.MealCard{ID: "c1", StudentID: "s1", CardNumber: "MC001001", Balance: decimal.RequireFromString("130"), IsActive: true, LastUsed: &at}

	rec := NewBalanceRecord(card, 9, at)
	assert.Equal(t, "c1", rec.CardID)
	assert.Equal(t, "MC001001", rec.CardNumber)
	assert.Equal(t, "130", rec.Balance.String())
	assert.True(t, rec.IsActive)
	assert.Equal(t, &at, rec.LastUsed)
	assert.Equal(t, uint64(9), rec.Seq)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "card_transactions", CardTransactionRecord{}.TableName())
	assert.Equal(t, "card_balances", CardBalanceRecord{}.TableName())
}

func TestUpsertTransactionsSQL(t *testing.T) {
	recs := []CardTransactionRecord{NewTransactionRecord(domain.Transaction{
		ID: "t3", CardID: "c2", Type: domain.TypeRecharge, Amount: decimal.NewFromInt(50),
		Description: "Card recharge", Status: domain.StatusPending, CreatedAt: at,
	}, 3, at)}

	res := upsertTransactions(dryRun(t), recs)
	require.NoError(t, res.Error)
	sql := res.Statement.SQL.String()
	assert.Contains(t, sql, "INSERT INTO `card_transactions`")
	assert.Contains(t, sql, "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, sql, "`status`=IF(VALUES(`seq`) > `seq`, VALUES(`status`), `status`)")
	assert.Contains(t, sql, "`processed_by`=IF(VALUES(`seq`) > `seq`, VALUES(`processed_by`), `processed_by`)")
	assert.NotContains(t, sql, "`amount`=")
	assertSeqAssignedLast(t, sql)
}

// A late, older event must not overwrite a newer row: every column is guarded
// by the stored seq, and seq only moves forward after the guards ran.
func assertSeqAssignedLast(t *testing.T, sql string) {
	t.Helper()
	update := sql[strings.Index(sql, "ON DUPLICATE KEY UPDATE"):]
	seqAt := strings.Index(update, "`seq`=GREATEST(`seq`, VALUES(`seq`))")
	require.NotEqual(t, -1, seqAt, update)
	assert.Greater(t, seqAt, strings.LastIndex(update, "IF(VALUES(`seq`) > `seq`"), update)
	assert.Equal(t, seqAt+len("`seq`=GREATEST(`seq`, VALUES(`seq`))"), len(update), "seq is the final assignment")
}

func TestUpsertBalancesSQL(t *testing.T) {
	recs := []CardBalanceRecord{NewBalanceRecord(domain.MealCard{ID: "c1", StudentID: "s1", CardNumber: "MC001001", Balance: decimal.NewFromInt(10)}, 4, at)}

	res := upsertBalances(dryRun(t), recs)
	require.NoError(t, res.Error)
	sql := res.Statement.SQL.String()
	assert.Contains(t, sql, "INSERT INTO `card_balances`")
	assert.Contains(t, sql, "`balance`=IF(VALUES(`seq`) > `seq`, VALUES(`balance`), `balance`)")
	assertSeqAssignedLast(t, sql)
}
