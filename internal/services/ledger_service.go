package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/arabadanismani/backend/internal/models"
)

// Ledger owns the per-user credit balance. Every method is atomic per user:
// a debit and a credit for the same user never interleave.
type Ledger interface {
	// Ensure returns the balance, creating the account with the initial
	// grant if it does not exist.
	Ensure(ctx context.Context, userID string) (int, error)
	// Debit spends one credit and returns the remaining balance, or
	// ErrQuotaExhausted without mutating anything when the balance is <= 0.
	Debit(ctx context.Context, userID string) (int, error)
	// Credit adds amount and returns the new balance, which is
	// max(existing or initial grant, 0) + amount.
	Credit(ctx context.Context, userID string, amount int) (int, error)
	// ApplyPurchase records the purchase and credits its amount in one
	// transaction. A purchase token is credited at most once.
	ApplyPurchase(ctx context.Context, rec models.PurchaseRecord) (models.PurchaseResult, error)
}

// DefaultInitialGrant is the number of credits a new account starts with.
const DefaultInitialGrant = 7

// PostgresLedger keeps balances in the users table and relies on row locks
// (SELECT ... FOR UPDATE) for per-user isolation.
type PostgresLedger struct {
	db           *sql.DB
	initialGrant int
	now          func() time.Time
}

func NewPostgresLedger(db *sql.DB, initialGrant int) *PostgresLedger {
	if initialGrant < 0 {
		initialGrant = DefaultInitialGrant
	}
	return &PostgresLedger{
		db:           db,
		initialGrant: initialGrant,
		now:          time.Now,
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (l *PostgresLedger) Ensure(ctx context.Context, userID string) (int, error) {
	if err := l.createAccount(ctx, l.db, userID, l.now()); err != nil {
		return 0, err
	}

	var credits int
	err := l.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE user_id = $1`, userID).Scan(&credits)
	if err != nil {
		return 0, storageError("read balance", err)
	}
	return credits, nil
}

func (l *PostgresLedger) Debit(ctx context.Context, userID string) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError("begin debit", err)
	}
	defer tx.Rollback()

	now := l.now()
	if err := l.createAccount(ctx, tx, userID, now); err != nil {
		return 0, err
	}

	account, err := l.lockAccount(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	if account.Credits <= 0 {
		return 0, ErrQuotaExhausted
	}

	remaining := account.Credits - 1
	if err := l.updateBalance(ctx, tx, userID, remaining, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError("commit debit", err)
	}
	return remaining, nil
}

func (l *PostgresLedger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError("begin credit", err)
	}
	defer tx.Rollback()

	balance, err := l.creditTx(ctx, tx, userID, amount, l.now())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError("commit credit", err)
	}
	return balance, nil
}

// creditTx applies a credit inside an open transaction.
func (l *PostgresLedger) creditTx(ctx context.Context, tx *sql.Tx, userID string, amount int, now time.Time) (int, error) {
	if err := l.createAccount(ctx, tx, userID, now); err != nil {
		return 0, err
	}

	account, err := l.lockAccount(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	balance := max(account.Credits, 0) + amount
	if err := l.updateBalance(ctx, tx, userID, balance, now); err != nil {
		return 0, err
	}
	return balance, nil
}

// createAccount inserts the account with the initial grant unless it exists.
// Concurrent first accesses race on the primary key, so only one grant is
// ever written.
func (l *PostgresLedger) createAccount(ctx context.Context, ex execer, userID string, now time.Time) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO users (user_id, credits, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, l.initialGrant, now)
	if err != nil {
		return storageError("create account", err)
	}
	return nil
}

func (l *PostgresLedger) lockAccount(ctx context.Context, tx *sql.Tx, userID string) (*models.UserAccount, error) {
	var account models.UserAccount
	err := tx.QueryRowContext(ctx, `SELECT user_id, credits, created_at, updated_at FROM users WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&account.UserID, &account.Credits, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, storageError("lock account", err)
	}
	return &account, nil
}

func (l *PostgresLedger) updateBalance(ctx context.Context, tx *sql.Tx, userID string, credits int, now time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE users SET credits = $1, updated_at = $2 WHERE user_id = $3`,
		credits, now, userID)
	if err != nil {
		return storageError("update balance", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storageError("update balance", err)
	}
	if rowsAffected == 0 {
		return storageError("update balance", errors.New("account row vanished"))
	}
	return nil
}
