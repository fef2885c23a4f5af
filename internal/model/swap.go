package model

import "time"

// SwapRequest represents a proposal to exchange points or an offered item
// for another user's listed item.
type SwapRequest struct {
	ID              int64     `json:"id"`
	RequesterID     int64     `json:"requester_id"`
	RequestedItemID int64     `json:"requested_item_id"`
	OfferedItemID   *int64    `json:"offered_item_id,omitempty"`
	Message         string    `json:"message,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	RequesterName     string `json:"requester_name,omitempty"`
	RequestedItemName string `json:"requested_item_name,omitempty"`
	OfferedItemName   string `json:"offered_item_name,omitempty"`
}

// Swap request statuses. A request is created pending and takes exactly
// one terminal transition.
const (
	SwapStatusPending   = "pending"
	SwapStatusAccepted  = "accepted"
	SwapStatusRejected  = "rejected"
	SwapStatusCancelled = "cancelled"
)

// ValidSwapDecision reports whether a status is a legal resolution for a
// pending swap request.
func ValidSwapDecision(decision string) bool {
	switch decision {
	case SwapStatusAccepted, SwapStatusRejected, SwapStatusCancelled:
		return true
	}
	return false
}
