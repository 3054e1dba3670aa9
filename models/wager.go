package models

import (
	"time"
)

// StakeItem is one number pattern with a currency-tagged amount. Decade and
// terminal shorthand patterns are stored as submitted (with the amount
// already multiplied by ten), not expanded into ten rows; settlement
// interprets them at resolution time.
type StakeItem struct {
	Pattern  string `json:"pattern"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

// Wager is one user's submission of stakes against a session and bet type.
// It is immutable after creation except for the cancel-before-close path,
// which reverses its debit and deletes it, and the settlement fields written
// exactly once when the session resolves.
type Wager struct {
	ID        int64       `db:"id"`
	UserID    int64       `db:"user_id"`
	SessionID int64       `db:"session_id"`
	BetType   BetType     `db:"bet_type"`
	RawText   string      `db:"raw_text"` // retained for audit and display
	Items     []StakeItem `db:"items"`

	// BonusUsed is the base-currency portion of the cost that was covered
	// from the bonus balance at reservation time. Stored so cancellation can
	// reverse the split exactly.
	BonusUsed int64 `db:"bonus_used"`

	SettledAt *time.Time       `db:"settled_at"`
	Won       *bool            `db:"won"`
	Prize     map[string]int64 `db:"prize"`

	CreatedAt time.Time `db:"created_at"`
}

// CostByCurrency sums the wager's stake items per currency.
func (w *Wager) CostByCurrency() map[string]int64 {
	costs := make(map[string]int64)
	for _, item := range w.Items {
		costs[item.Currency] += item.Amount
	}
	return costs
}

// IsSettled reports whether settlement has already processed this wager.
func (w *Wager) IsSettled() bool {
	return w.SettledAt != nil
}

// PlaceWagerResult is returned to callers of PlaceWager.
type PlaceWagerResult struct {
	Wager    *Wager
	Account  *Account
	Rejected []string // segments the parser dropped, for display
}

// SettlementWinner is one winning account with its per-currency prize.
type SettlementWinner struct {
	UserID  int64
	WagerID int64
	Prize   map[string]int64
}

// SettlementResult summarizes one settlement pass over a session.
type SettlementResult struct {
	SessionID    int64
	Digits       string
	Winners      []SettlementWinner
	NoWinUserIDs []int64
	Settled      int
	Failed       int
}
