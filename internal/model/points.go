package model

import "time"

// PointTransaction is an append-only audit record of a point balance
// change. The sum of a user's transactions always equals their balance.
type PointTransaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ItemID      *int64    `json:"item_id,omitempty"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Point transaction types.
const (
	PointTxSignupBonus = "signup_bonus"
	PointTxSwapDebit   = "swap_debit"
	PointTxSwapCredit  = "swap_credit"
	PointTxAdjustment  = "adjustment"
)
