package model

import "testing"

func TestItemStatusCanTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{ItemStatusPendingApproval, ItemStatusListed, true},
		{ItemStatusPendingApproval, ItemStatusRemoved, true},
		{ItemStatusListed, ItemStatusSwapped, true},
		{ItemStatusListed, ItemStatusRemoved, true},
		// No shortcuts into swapped.
		{ItemStatusPendingApproval, ItemStatusSwapped, false},
		// Terminal statuses have no outgoing edges.
		{ItemStatusSwapped, ItemStatusListed, false},
		{ItemStatusSwapped, ItemStatusRemoved, false},
		{ItemStatusRemoved, ItemStatusListed, false},
		// No backwards edges or self-loops.
		{ItemStatusListed, ItemStatusPendingApproval, false},
		{ItemStatusListed, ItemStatusListed, false},
		// Unknown statuses fail-closed.
		{"unknown", ItemStatusListed, false},
		{ItemStatusListed, "unknown", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got := ItemStatusCanTransition(tt.from, tt.to)
		if got != tt.expected {
			t.Errorf("ItemStatusCanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}

func TestValidSwapDecision(t *testing.T) {
	tests := []struct {
		decision string
		expected bool
	}{
		{SwapStatusAccepted, true},
		{SwapStatusRejected, true},
		{SwapStatusCancelled, true},
		{SwapStatusPending, false},
		{"approved", false},
		{"", false},
	}

	for _, tt := range tests {
		got := ValidSwapDecision(tt.decision)
		if got != tt.expected {
			t.Errorf("ValidSwapDecision(%q) = %v, want %v", tt.decision, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
