package models

import (
	"time"
)

// BetType identifies a wager grammar and its matching rule. Wire values keep
// the traditional bolita names.
type BetType string

const (
	// BetTypeStraight ("fijo") plays the last two digits of the hundred
	// block. Accepts decade (D<digit>) and terminal (T<digit>) shorthand.
	BetTypeStraight BetType = "fijo"
	// BetTypeRunner ("corridos") plays any of the three derived 2-digit
	// runners.
	BetTypeRunner BetType = "corridos"
	// BetTypeHundred ("centena") plays the full 3-digit hundred block.
	BetTypeHundred BetType = "centena"
	// BetTypeCombo ("parle") plays an unordered pair of runners.
	BetTypeCombo BetType = "parle"
)

// AllBetTypes lists every supported bet type in display order.
var AllBetTypes = []BetType{BetTypeStraight, BetTypeRunner, BetTypeHundred, BetTypeCombo}

// Valid reports whether the bet type is one of the supported kinds.
func (b BetType) Valid() bool {
	switch b {
	case BetTypeStraight, BetTypeRunner, BetTypeHundred, BetTypeCombo:
		return true
	}
	return false
}

// BetTypeConfig holds the admin-mutable settlement parameters for one bet
// type. Stake amounts are minor units keyed by currency code. Changes are not
// retroactive: settlement snapshots the multiplier in force at publish time
// and settled wagers are never re-processed.
type BetTypeConfig struct {
	BetType      BetType          `db:"bet_type"`
	Multiplier   int64            `db:"multiplier"`
	DefaultStake map[string]int64 `db:"default_stake"`
	MinStake     map[string]int64 `db:"min_stake"`
	MaxStake     map[string]int64 `db:"max_stake"`
	UpdatedAt    time.Time        `db:"updated_at"`
}
