package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rewearhq/rewear/internal/model"
)

// AdjustBalance applies a credit or debit to a user's point balance and
// appends the matching audit record. The guarded UPDATE keeps the
// balance non-negative without a separate read, so concurrent debits
// cannot race past zero. Pass a *sql.Tx as db to make the adjustment
// part of a larger unit of work (swap settlement does this).
func AdjustBalance(ctx context.Context, db DBTX, userID, delta int64, txType string, itemID *int64, description string) (*model.PointTransaction, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET points_balance = points_balance + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND points_balance + ? >= 0`,
		delta, userID, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("adjusting balance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		// Either the user doesn't exist or the debit would go negative.
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = ? AND deleted_at IS NULL)`,
			userID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking user: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, ErrInsufficientPoints
	}

	insert, err := db.ExecContext(ctx,
		`INSERT INTO point_transactions (user_id, item_id, amount, type, description)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, itemID, delta, txType, description,
	)
	if err != nil {
		return nil, fmt.Errorf("recording point transaction: %w", err)
	}

	id, err := insert.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting transaction id: %w", err)
	}

	return GetPointTransaction(ctx, db, id)
}

// GetBalance returns a user's current point balance.
func GetBalance(ctx context.Context, db DBTX, userID int64) (int64, error) {
	var balance int64
	err := db.QueryRowContext(ctx,
		`SELECT points_balance FROM users WHERE id = ? AND deleted_at IS NULL`,
		userID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("user %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("getting balance: %w", err)
	}
	return balance, nil
}

// GetPointTransaction returns a single point transaction by ID.
func GetPointTransaction(ctx context.Context, db DBTX, id int64) (*model.PointTransaction, error) {
	pt := &model.PointTransaction{}
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, item_id, amount, type, description, created_at
		 FROM point_transactions WHERE id = ?`, id,
	).Scan(&pt.ID, &pt.UserID, &pt.ItemID, &pt.Amount, &pt.Type, &description, &pt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("point transaction %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting point transaction: %w", err)
	}
	pt.Description = description.String
	return pt, nil
}

// ListPointTransactions returns a user's point transactions, newest first.
func ListPointTransactions(ctx context.Context, db DBTX, userID int64) ([]model.PointTransaction, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, item_id, amount, type, description, created_at
		 FROM point_transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing point transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.PointTransaction
	for rows.Next() {
		var pt model.PointTransaction
		var description sql.NullString
		if err := rows.Scan(&pt.ID, &pt.UserID, &pt.ItemID, &pt.Amount, &pt.Type, &description, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning point transaction: %w", err)
		}
		pt.Description = description.String
		txs = append(txs, pt)
	}
	return txs, rows.Err()
}
