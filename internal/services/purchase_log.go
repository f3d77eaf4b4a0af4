package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/arabadanismani/backend/internal/models"
)

func (l *PostgresLedger) ApplyPurchase(ctx context.Context, rec models.PurchaseRecord) (models.PurchaseResult, error) {
	if rec.PurchaseToken == "" || rec.UserID == "" {
		return models.PurchaseResult{}, ErrInvalidPurchase
	}
	if rec.Amount <= 0 {
		return models.PurchaseResult{}, ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.PurchaseResult{}, storageError("begin purchase", err)
	}
	defer tx.Rollback()

	now := l.now()
	// The primary key on purchase_token is the idempotency check. A
	// concurrent insert of the same token blocks here until the first
	// transaction finishes, then inserts nothing.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (purchase_token, user_id, amount, platform, package_name, product_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (purchase_token) DO NOTHING`,
		rec.PurchaseToken, rec.UserID, rec.Amount, rec.Meta.Platform, rec.Meta.PackageName, rec.Meta.ProductID, now)
	if err != nil {
		return models.PurchaseResult{}, storageError("record purchase", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return models.PurchaseResult{}, storageError("record purchase", err)
	}

	if inserted == 0 {
		total, err := l.balanceTx(ctx, tx, rec.UserID)
		if err != nil {
			return models.PurchaseResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return models.PurchaseResult{}, storageError("commit purchase", err)
		}
		return models.PurchaseResult{AlreadyProcessed: true, Total: total}, nil
	}

	total, err := l.creditTx(ctx, tx, rec.UserID, rec.Amount, now)
	if err != nil {
		return models.PurchaseResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.PurchaseResult{}, storageError("commit purchase", err)
	}
	return models.PurchaseResult{AlreadyProcessed: false, Total: total}, nil
}

// balanceTx reads a balance without creating the account; an unknown user
// reports the initial grant they would start with.
func (l *PostgresLedger) balanceTx(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	var credits int
	err := tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE user_id = $1`, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return l.initialGrant, nil
	}
	if err != nil {
		return 0, storageError("read balance", err)
	}
	return credits, nil
}
