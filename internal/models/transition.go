package models

import "time"

const (
	OutcomeOK            = "ok"
	OutcomeRolledBack    = "rolled_back"
	OutcomeRefetchFailed = "refetch_failed"
	OutcomeRejected      = "rejected"
)

// TransitionRecord is one journaled transition attempt.
type TransitionRecord struct {
	ID         int64     `json:"id"`
	BookingID  string    `json:"booking_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
