package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rewearhq/rewear/internal/model"
)

// CreateUser creates a new user with the signup bonus credited. The user
// row and the matching point transaction are written in one transaction
// so the balance always reconciles against the audit trail.
func CreateUser(ctx context.Context, db *sql.DB, username, email, passwordHash, location string) (*model.User, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, points_balance, location)
		 VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, model.SignupBonus, location,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username or email %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO point_transactions (user_id, amount, type, description)
		 VALUES (?, ?, ?, 'welcome bonus')`,
		id, model.SignupBonus, model.PointTxSignupBonus,
	)
	if err != nil {
		return nil, fmt.Errorf("recording signup bonus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db DBTX, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, points_balance, location, avatar,
		        is_admin, created_at, updated_at, deleted_at
		 FROM users WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username (including soft-deleted
// rows, so auth checks can distinguish deleted accounts).
func GetUserByUsername(ctx context.Context, db DBTX, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, points_balance, location, avatar,
		        is_admin, created_at, updated_at, deleted_at
		 FROM users WHERE username = ?`, username,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email.
func GetUserByEmail(ctx context.Context, db DBTX, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, points_balance, location, avatar,
		        is_admin, created_at, updated_at, deleted_at
		 FROM users WHERE email = ?`, email,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db DBTX) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, email, password_hash, points_balance, location, avatar,
		        is_admin, created_at, updated_at, deleted_at
		 FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var location, avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Points,
			&location, &avatar, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.Location = location.String
		u.Avatar = avatar.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserProfile updates a user's profile fields.
func UpdateUserProfile(ctx context.Context, db DBTX, id int64, location, avatar string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET location = ?, avatar = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		location, avatar, id,
	)
	if err != nil {
		return fmt.Errorf("updating user profile: %w", err)
	}
	return requireRow(result, "user")
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db DBTX, id int64, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return requireRow(result, "user")
}

// SetUserAdmin grants or revokes the admin flag.
func SetUserAdmin(ctx context.Context, db DBTX, id int64, isAdmin bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET is_admin = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		isAdmin, id,
	)
	if err != nil {
		return fmt.Errorf("updating admin flag: %w", err)
	}
	return requireRow(result, "user")
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db DBTX, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRow(result, "user")
}

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	var location, avatar sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Points,
		&location, &avatar, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u.Location = location.String
	u.Avatar = avatar.String
	return u, nil
}

// requireRow converts a zero-row UPDATE into ErrNotFound.
func requireRow(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
