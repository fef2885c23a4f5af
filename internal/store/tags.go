package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SetItemTags replaces an item's tag set. Tag names are created on first
// use and shared between items; the item_tags rows cascade away when the
// item row is deleted.
func SetItemTags(ctx context.Context, db *sql.DB, itemID int64, tags []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE id = ?)`, itemID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if !exists {
		return fmt.Errorf("item %w", ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM item_tags WHERE item_id = ?`, itemID,
	); err != nil {
		return fmt.Errorf("clearing item tags: %w", err)
	}

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag,
		); err != nil {
			return fmt.Errorf("creating tag: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_tags (item_id, tag_id)
			 SELECT ?, id FROM tags WHERE name = ?`,
			itemID, tag,
		); err != nil {
			return fmt.Errorf("tagging item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item tags: %w", err)
	}
	return nil
}

// GetItemTags returns an item's tag names, sorted.
func GetItemTags(ctx context.Context, db DBTX, itemID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.name FROM tags t
		 JOIN item_tags it ON it.tag_id = t.id
		 WHERE it.item_id = ?
		 ORDER BY t.name`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}
