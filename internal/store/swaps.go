package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rewearhq/rewear/internal/model"
)

// CreateSwapRequest creates a pending swap request for a listed item.
// When offeredItemID is nil the request settles with points on accept;
// otherwise it settles as a direct item-for-item swap.
func CreateSwapRequest(ctx context.Context, db *sql.DB, requesterID, requestedItemID int64, offeredItemID *int64, message string) (*model.SwapRequest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	requested, err := GetItem(ctx, tx, requestedItemID)
	if err != nil {
		return nil, err
	}
	if requested.OwnerID == requesterID {
		return nil, fmt.Errorf("%w: cannot request your own item", ErrInvalidRequest)
	}
	if requested.Status != model.ItemStatusListed {
		return nil, fmt.Errorf("%w: requested item is %s, not listed", ErrInvalidRequest, requested.Status)
	}

	if offeredItemID != nil {
		offered, err := GetItem(ctx, tx, *offeredItemID)
		if err != nil {
			return nil, err
		}
		if offered.OwnerID != requesterID {
			return nil, fmt.Errorf("%w: offered item is not yours", ErrInvalidRequest)
		}
		if offered.Status != model.ItemStatusListed {
			return nil, fmt.Errorf("%w: offered item is %s, not listed", ErrInvalidRequest, offered.Status)
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO swap_requests (requester_id, requested_item_id, offered_item_id, message)
		 VALUES (?, ?, ?, ?)`,
		requesterID, requestedItemID, offeredItemID, message,
	)
	if err != nil {
		return nil, fmt.Errorf("creating swap request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting swap request id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing swap request: %w", err)
	}

	return GetSwapRequest(ctx, db, id)
}

// ResolveSwapRequest applies exactly one terminal transition to a pending
// swap request. Only the requested item's owner may resolve. On accept,
// settlement (item status flips and any ledger movement) happens in the
// same transaction as the status change, so a failed settlement leaves
// the request pending. A second resolution attempt fails with
// ErrAlreadyResolved because the guarded UPDATE matches zero rows.
func ResolveSwapRequest(ctx context.Context, db *sql.DB, requestID int64, decision string, resolverID int64) (*model.SwapRequest, error) {
	if !model.ValidSwapDecision(decision) {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidRequest, decision)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	req, err := getSwapRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	requested, err := GetItem(ctx, tx, req.RequestedItemID)
	if err != nil {
		return nil, err
	}
	if requested.OwnerID != resolverID {
		return nil, fmt.Errorf("%w: only the item owner may resolve this request", ErrUnauthorized)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE swap_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		decision, requestID, model.SwapStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("updating swap request status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return nil, ErrAlreadyResolved
	}

	if decision == model.SwapStatusAccepted {
		if err := settleSwap(ctx, tx, req, requested); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing swap resolution: %w", err)
	}

	return GetSwapRequest(ctx, db, requestID)
}

// settleSwap applies the side effects of an accepted swap request inside
// the caller's transaction.
func settleSwap(ctx context.Context, tx *sql.Tx, req *model.SwapRequest, requested *model.Item) error {
	if req.OfferedItemID != nil {
		// Direct swap: both items flip to swapped, no ledger movement.
		if err := markSwapped(ctx, tx, requested.ID); err != nil {
			return err
		}
		if err := markSwapped(ctx, tx, *req.OfferedItemID); err != nil {
			return err
		}
		if err := cancelPendingRequestsForItem(ctx, tx, *req.OfferedItemID); err != nil {
			return err
		}
	} else {
		// Points swap: debit the requester, credit the owner.
		desc := fmt.Sprintf("swap for %q", requested.Title)
		if _, err := AdjustBalance(ctx, tx, req.RequesterID, -requested.PointValue,
			model.PointTxSwapDebit, &requested.ID, desc); err != nil {
			return err
		}
		if _, err := AdjustBalance(ctx, tx, requested.OwnerID, requested.PointValue,
			model.PointTxSwapCredit, &requested.ID, desc); err != nil {
			return err
		}
		if err := markSwapped(ctx, tx, requested.ID); err != nil {
			return err
		}
	}

	// Other negotiations for the now-swapped item can never complete.
	return cancelPendingRequestsForItem(ctx, tx, requested.ID)
}

// markSwapped flips a listed item to swapped. Items in any other status
// cannot be settled, which closes the window where an item gets swapped
// twice through two different requests.
func markSwapped(ctx context.Context, tx *sql.Tx, itemID int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.ItemStatusSwapped, itemID, model.ItemStatusListed,
	)
	if err != nil {
		return fmt.Errorf("marking item swapped: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: item is no longer listed", ErrInvalidRequest)
	}
	return nil
}

// cancelPendingRequestsForItem force-cancels every pending swap request
// referencing the item, as requester or as offer. The resolved request's
// own row is already terminal, so it is never touched here.
func cancelPendingRequestsForItem(ctx context.Context, tx *sql.Tx, itemID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE swap_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND (requested_item_id = ? OR offered_item_id = ?)`,
		model.SwapStatusCancelled, model.SwapStatusPending, itemID, itemID,
	)
	if err != nil {
		return fmt.Errorf("cancelling pending requests: %w", err)
	}
	return nil
}

// GetSwapRequest returns a swap request by ID with joined display names.
func GetSwapRequest(ctx context.Context, db DBTX, id int64) (*model.SwapRequest, error) {
	return getSwapRequest(ctx, db, id)
}

func getSwapRequest(ctx context.Context, db DBTX, id int64) (*model.SwapRequest, error) {
	req := &model.SwapRequest{}
	var message sql.NullString
	var offeredName sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT s.id, s.requester_id, s.requested_item_id, s.offered_item_id, s.message,
		        s.status, s.created_at, s.updated_at,
		        u.username AS requester_name, ri.title AS requested_item_name, oi.title AS offered_item_name
		 FROM swap_requests s
		 JOIN users u ON u.id = s.requester_id
		 JOIN items ri ON ri.id = s.requested_item_id
		 LEFT JOIN items oi ON oi.id = s.offered_item_id
		 WHERE s.id = ?`, id,
	).Scan(&req.ID, &req.RequesterID, &req.RequestedItemID, &req.OfferedItemID, &message,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
		&req.RequesterName, &req.RequestedItemName, &offeredName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("swap request %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting swap request: %w", err)
	}
	req.Message = message.String
	req.OfferedItemName = offeredName.String
	return req, nil
}

// ListSwapRequests returns swap requests, optionally filtered by item or
// by user (as requester or as owner of the requested item), newest first.
func ListSwapRequests(ctx context.Context, db DBTX, itemID, userID int64) ([]model.SwapRequest, error) {
	query := `SELECT s.id, s.requester_id, s.requested_item_id, s.offered_item_id, s.message,
	                 s.status, s.created_at, s.updated_at,
	                 u.username AS requester_name, ri.title AS requested_item_name, oi.title AS offered_item_name
	          FROM swap_requests s
	          JOIN users u ON u.id = s.requester_id
	          JOIN items ri ON ri.id = s.requested_item_id
	          LEFT JOIN items oi ON oi.id = s.offered_item_id
	          WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND s.requested_item_id = ?`
		args = append(args, itemID)
	}
	if userID > 0 {
		query += ` AND (s.requester_id = ? OR ri.owner_id = ?)`
		args = append(args, userID, userID)
	}

	query += ` ORDER BY s.created_at DESC, s.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing swap requests: %w", err)
	}
	defer rows.Close()

	var reqs []model.SwapRequest
	for rows.Next() {
		var req model.SwapRequest
		var message, offeredName sql.NullString
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.RequestedItemID, &req.OfferedItemID, &message,
			&req.Status, &req.CreatedAt, &req.UpdatedAt,
			&req.RequesterName, &req.RequestedItemName, &offeredName); err != nil {
			return nil, fmt.Errorf("scanning swap request: %w", err)
		}
		req.Message = message.String
		req.OfferedItemName = offeredName.String
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
