package model

import "time"

// Item represents a single piece of clothing listed for swapping.
type Item struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Type        string    `json:"type,omitempty"`
	Size        string    `json:"size,omitempty"`
	Condition   string    `json:"condition"`
	PointValue  int64     `json:"point_value"`
	ImageMime   string    `json:"image_mime,omitempty"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	OwnerName string `json:"owner_name,omitempty"`
}

// Item statuses.
const (
	ItemStatusPendingApproval = "pending_approval"
	ItemStatusListed          = "listed"
	ItemStatusSwapped         = "swapped"
	ItemStatusRemoved         = "removed"
)

// itemEdges enumerates the legal item status transitions. Anything not
// listed here is rejected; swapped and removed are terminal.
var itemEdges = map[string][]string{
	ItemStatusPendingApproval: {ItemStatusListed, ItemStatusRemoved},
	ItemStatusListed:          {ItemStatusSwapped, ItemStatusRemoved},
}

// ItemStatusCanTransition reports whether an item may move from one
// status to another.
func ItemStatusCanTransition(from, to string) bool {
	for _, next := range itemEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}
