package models

import "errors"

// Domain error taxonomy. Every failure in the core is one of these four,
// wrapped with context via fmt.Errorf("...: %w", err). Callers branch with
// errors.Is.
var (
	// ErrValidation covers malformed wager text, invalid digit strings and
	// out-of-range amounts. Nothing was mutated.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientFunds is returned when a debit would drive a balance
	// negative. All balances are left unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStateConflict covers operations against an entity in the wrong
	// state: wagering or cancelling on a closed session, publishing against
	// an open session, publishing a second winning number, opening a
	// duplicate session.
	ErrStateConflict = errors.New("state conflict")

	// ErrNotFound is returned for unknown sessions, wagers and accounts.
	ErrNotFound = errors.New("not found")
)
