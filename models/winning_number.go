package models

import (
	"fmt"
	"strings"
	"time"
)

// WinningNumberLength is the fixed length of a published digit string:
// a 3-digit hundred block followed by a 4-digit quartet block.
const WinningNumberLength = 7

// WinningNumber is the operator-published result for one drawing window.
// It is bound 1:1 to a (region, date, slot) triple and immutable once
// created; storage enforces the uniqueness.
type WinningNumber struct {
	ID        int64     `db:"id"`
	SessionID int64     `db:"session_id"`
	Region    string    `db:"region"`
	Date      time.Time `db:"date"`
	Slot      string    `db:"slot"`
	Digits    string    `db:"digits"`
	CreatedAt time.Time `db:"created_at"`
}

// Decomposition is the breakdown of a winning digit string into the
// sub-prizes each bet type settles against.
type Decomposition struct {
	Hundred  string    // digits[0:3]
	Straight string    // last two digits of the hundred block
	Runners  [3]string // straight plus the two halves of the quartet
	Combos   [3]string // unordered runner pairs, "AAxBB"
}

// ValidateDigits checks that digits is exactly seven numeric characters.
func ValidateDigits(digits string) error {
	if len(digits) != WinningNumberLength {
		return fmt.Errorf("%w: winning number must be %d digits, got %d", ErrValidation, WinningNumberLength, len(digits))
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: winning number must be numeric, got %q", ErrValidation, digits)
		}
	}
	return nil
}

// Decompose splits a 7-digit winning number into its sub-prizes.
func Decompose(digits string) (Decomposition, error) {
	if err := ValidateDigits(digits); err != nil {
		return Decomposition{}, err
	}
	hundred := digits[0:3]
	quartet := digits[3:7]
	straight := hundred[1:3]
	runners := [3]string{straight, quartet[0:2], quartet[2:4]}
	return Decomposition{
		Hundred:  hundred,
		Straight: straight,
		Runners:  runners,
		Combos: [3]string{
			runners[0] + "x" + runners[1],
			runners[0] + "x" + runners[2],
			runners[1] + "x" + runners[2],
		},
	}, nil
}

// Decompose returns the decomposition of this winning number.
func (w *WinningNumber) Decompose() (Decomposition, error) {
	return Decompose(w.Digits)
}

// Matches reports whether a stake item pattern wins against this
// decomposition under the given bet type.
func (d Decomposition) Matches(betType BetType, pattern string) bool {
	switch betType {
	case BetTypeStraight:
		if len(pattern) == 2 {
			switch pattern[0] {
			case 'D':
				return strings.HasPrefix(d.Straight, pattern[1:])
			case 'T':
				return strings.HasSuffix(d.Straight, pattern[1:])
			}
		}
		return pattern == d.Straight
	case BetTypeRunner:
		for _, r := range d.Runners {
			if pattern == r {
				return true
			}
		}
		return false
	case BetTypeHundred:
		return pattern == d.Hundred
	case BetTypeCombo:
		first, second, ok := strings.Cut(pattern, "x")
		if !ok {
			return false
		}
		for _, c := range d.Combos {
			a, b, _ := strings.Cut(c, "x")
			if (first == a && second == b) || (first == b && second == a) {
				return true
			}
		}
		return false
	}
	return false
}
