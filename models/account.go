package models

import (
	"time"
)

// Account represents a player with per-currency balances and a bonus balance.
// Balances are minor units (centavos) in their own currency. The bonus
// balance is denominated in the base currency, is never withdrawable and is
// only ever consumed to cover wager cost.
type Account struct {
	UserID    int64     `db:"user_id"`
	FirstName string    `db:"first_name"`
	Referrer  *int64    `db:"referrer"`
	Bonus     int64     `db:"bonus"`
	Balances  map[string]int64
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BalanceFor returns the real balance for a currency, zero if the account
// holds none of it.
func (a *Account) BalanceFor(currency string) int64 {
	return a.Balances[currency]
}

// CanCover reports whether the account can cover the given per-currency
// costs, counting the bonus balance toward the base-currency cost.
func (a *Account) CanCover(costs map[string]int64, baseCurrency string) bool {
	for currency, amount := range costs {
		available := a.BalanceFor(currency)
		if currency == baseCurrency {
			available += a.Bonus
		}
		if available < amount {
			return false
		}
	}
	return true
}
