package models

import (
	"time"
)

// ExchangeRate maps one secondary currency to the base currency: one unit of
// the base currency buys Rate units of Currency. Rates are used for
// threshold comparisons, display and the deposit bonus conversion only;
// stored wager amounts always keep their original currency.
type ExchangeRate struct {
	Currency  string    `db:"currency"`
	Rate      float64   `db:"rate"`
	UpdatedAt time.Time `db:"updated_at"`
}
