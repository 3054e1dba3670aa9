package models

import (
	"time"
)

// SessionState represents the wager-acceptance state of a drawing window
type SessionState string

const (
	SessionStateOpen   SessionState = "open"
	SessionStateClosed SessionState = "closed"
)

// Session represents one drawing window for a region, calendar date and
// named time slot. Uniqueness on (region, date, slot) is enforced by the
// storage layer, not by the session id.
type Session struct {
	ID        int64        `db:"id"`
	Region    string       `db:"region"`
	Date      time.Time    `db:"date"` // calendar date, midnight in the schedule timezone
	Slot      string       `db:"slot"`
	State     SessionState `db:"state"`
	CloseAt   time.Time    `db:"close_at"`
	CreatedAt time.Time    `db:"created_at"`
	ClosedAt  *time.Time   `db:"closed_at"`
}

// IsAcceptingWagers reports whether wagers may still be placed. Callers must
// re-check this inside the placing transaction; the session may close between
// menu render and submission.
func (s *Session) IsAcceptingWagers() bool {
	return s.State == SessionStateOpen
}

// IsExpired reports whether the session is past its scheduled close time.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.CloseAt)
}
