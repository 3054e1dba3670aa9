package repository

import (
	"context"
	"fmt"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// ExchangeRateRepository implements the service.ExchangeRateRepository interface
type ExchangeRateRepository struct {
	q queryable
}

// NewExchangeRateRepository creates a new exchange rate repository
func NewExchangeRateRepository(db *database.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{q: db.Pool}
}

// newExchangeRateRepositoryWithTx creates a new exchange rate repository with a transaction
func newExchangeRateRepositoryWithTx(tx queryable) *ExchangeRateRepository {
	return &ExchangeRateRepository{q: tx}
}

// Get retrieves the rate for a currency, nil if absent
func (r *ExchangeRateRepository) Get(ctx context.Context, currency string) (*models.ExchangeRate, error) {
	query := `SELECT currency, rate, updated_at FROM exchange_rates WHERE currency = $1`

	var rate models.ExchangeRate
	err := r.q.QueryRow(ctx, query, currency).Scan(&rate.Currency, &rate.Rate, &rate.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate for %s: %w", currency, err)
	}

	return &rate, nil
}

// GetAll returns every configured rate
func (r *ExchangeRateRepository) GetAll(ctx context.Context) ([]*models.ExchangeRate, error) {
	query := `SELECT currency, rate, updated_at FROM exchange_rates ORDER BY currency`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []*models.ExchangeRate
	for rows.Next() {
		var rate models.ExchangeRate
		if err := rows.Scan(&rate.Currency, &rate.Rate, &rate.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		rates = append(rates, &rate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchange rates: %w", err)
	}

	return rates, nil
}

// Set upserts the rate for a currency
func (r *ExchangeRateRepository) Set(ctx context.Context, currency string, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("%w: rate must be positive", models.ErrValidation)
	}

	query := `
		INSERT INTO exchange_rates (currency, rate, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (currency)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, currency, rate); err != nil {
		return fmt.Errorf("failed to set exchange rate for %s: %w", currency, err)
	}

	return nil
}
