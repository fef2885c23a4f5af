package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rewearhq/rewear/internal/model"
)

// NewItem holds the caller-supplied fields for item creation.
type NewItem struct {
	Title       string
	Description string
	Category    string
	Type        string
	Size        string
	Condition   string
	PointValue  int64
}

// validate checks the creation invariants for an item.
func (n *NewItem) validate() error {
	if n.Title == "" {
		return fmt.Errorf("%w: title required", ErrInvalidRequest)
	}
	if n.Category == "" {
		return fmt.Errorf("%w: category required", ErrInvalidRequest)
	}
	if n.Condition == "" {
		return fmt.Errorf("%w: condition required", ErrInvalidRequest)
	}
	if n.PointValue <= 0 {
		return fmt.Errorf("%w: point value must be positive", ErrInvalidRequest)
	}
	return nil
}

// CreateItem creates a new item in pending_approval status. The owner is
// fixed at creation and never changes.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, attrs NewItem) (*model.Item, error) {
	if err := attrs.validate(); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, title, description, category, type, size, condition, point_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, attrs.Title, attrs.Description, attrs.Category, attrs.Type, attrs.Size,
		attrs.Condition, attrs.PointValue,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID with its tags.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT i.id, i.owner_id, i.title, i.description, i.category, i.type, i.size,
		        i.condition, i.point_value, i.image_mime, i.status, i.created_at, i.updated_at,
		        u.username AS owner_name
		 FROM items i
		 JOIN users u ON u.id = i.owner_id
		 WHERE i.id = ?`, id,
	))
	if err != nil {
		return nil, err
	}

	tags, err := GetItemTags(ctx, db, id)
	if err != nil {
		return nil, err
	}
	item.Tags = tags
	return item, nil
}

// ListItems returns items, optionally filtered by status and owner,
// newest first.
func ListItems(ctx context.Context, db DBTX, status string, ownerID int64) ([]model.Item, error) {
	query := `SELECT i.id, i.owner_id, i.title, i.description, i.category, i.type, i.size,
	                 i.condition, i.point_value, i.image_mime, i.status, i.created_at, i.updated_at,
	                 u.username AS owner_name
	          FROM items i
	          JOIN users u ON u.id = i.owner_id
	          WHERE 1=1`
	var args []any

	if status != "" {
		query += ` AND i.status = ?`
		args = append(args, status)
	}
	if ownerID > 0 {
		query += ` AND i.owner_id = ?`
		args = append(args, ownerID)
	}

	query += ` ORDER BY i.created_at DESC, i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ApproveItem moves an item from pending_approval to listed. The guarded
// UPDATE rejects any other starting status.
func ApproveItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return transitionItem(ctx, db, id, model.ItemStatusPendingApproval, model.ItemStatusListed)
}

// RemoveItem moves an item to removed. Any pending swap requests
// referencing the item (requested or offered) are force-cancelled in the
// same transaction so no dangling negotiation survives the removal.
func RemoveItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := GetItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !model.ItemStatusCanTransition(item.Status, model.ItemStatusRemoved) {
		return nil, fmt.Errorf("%w: cannot remove item in status %s", ErrInvalidRequest, item.Status)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.ItemStatusRemoved, id, item.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("removing item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: item status changed concurrently", ErrInvalidRequest)
	}

	if err := cancelPendingRequestsForItem(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item removal: %w", err)
	}

	return GetItem(ctx, db, id)
}

// transitionItem applies a single guarded status edge.
func transitionItem(ctx context.Context, db *sql.DB, id int64, from, to string) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		// Distinguish a missing item from a wrong starting status.
		item, err := GetItem(ctx, db, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: item is %s, not %s", ErrInvalidRequest, item.Status, from)
	}

	return GetItem(ctx, db, id)
}

// SetItemImage processes and stores an item's photo.
func SetItemImage(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return requireRow(result, "item")
}

// GetItemImage returns an item's photo data and MIME type.
func GetItemImage(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("item %w", ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func scanItem(row *sql.Row) (*model.Item, error) {
	item := &model.Item{}
	var description, itemType, size, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &description, &item.Category,
		&itemType, &size, &item.Condition, &item.PointValue, &imageMime, &item.Status,
		&item.CreatedAt, &item.UpdatedAt, &item.OwnerName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.Type = itemType.String
	item.Size = size.String
	item.ImageMime = imageMime.String
	return item, nil
}

func scanItemRow(rows *sql.Rows) (*model.Item, error) {
	item := &model.Item{}
	var description, itemType, size, imageMime sql.NullString
	err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &description, &item.Category,
		&itemType, &size, &item.Condition, &item.PointValue, &imageMime, &item.Status,
		&item.CreatedAt, &item.UpdatedAt, &item.OwnerName)
	if err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}
	item.Description = description.String
	item.Type = itemType.String
	item.Size = size.String
	item.ImageMime = imageMime.String
	return item, nil
}
