package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// BetTypeConfigRepository implements the service.BetTypeConfigRepository interface
type BetTypeConfigRepository struct {
	q queryable
}

// NewBetTypeConfigRepository creates a new bet type config repository
func NewBetTypeConfigRepository(db *database.DB) *BetTypeConfigRepository {
	return &BetTypeConfigRepository{q: db.Pool}
}

// newBetTypeConfigRepositoryWithTx creates a new bet type config repository with a transaction
func newBetTypeConfigRepositoryWithTx(tx queryable) *BetTypeConfigRepository {
	return &BetTypeConfigRepository{q: tx}
}

func scanBetTypeConfig(row pgx.Row) (*models.BetTypeConfig, error) {
	var config models.BetTypeConfig
	var defaultJSON, minJSON, maxJSON []byte

	err := row.Scan(
		&config.BetType,
		&config.Multiplier,
		&defaultJSON,
		&minJSON,
		&maxJSON,
		&config.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, pair := range []struct {
		raw  []byte
		dest *map[string]int64
	}{
		{defaultJSON, &config.DefaultStake},
		{minJSON, &config.MinStake},
		{maxJSON, &config.MaxStake},
	} {
		if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stake map: %w", err)
		}
	}

	return &config, nil
}

// Get retrieves the configuration for one bet type, nil if absent
func (r *BetTypeConfigRepository) Get(ctx context.Context, betType models.BetType) (*models.BetTypeConfig, error) {
	query := `
		SELECT bet_type, multiplier, default_stake, min_stake, max_stake, updated_at
		FROM bet_type_configs
		WHERE bet_type = $1
	`

	config, err := scanBetTypeConfig(r.q.QueryRow(ctx, query, betType))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config for bet type %s: %w", betType, err)
	}

	return config, nil
}

// GetAll returns every bet type configuration
func (r *BetTypeConfigRepository) GetAll(ctx context.Context) ([]*models.BetTypeConfig, error) {
	query := `
		SELECT bet_type, multiplier, default_stake, min_stake, max_stake, updated_at
		FROM bet_type_configs
		ORDER BY bet_type
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet type configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.BetTypeConfig
	for rows.Next() {
		config, err := scanBetTypeConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet type config: %w", err)
		}
		configs = append(configs, config)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bet type configs: %w", err)
	}

	return configs, nil
}

// Update overwrites a bet type configuration
func (r *BetTypeConfigRepository) Update(ctx context.Context, config *models.BetTypeConfig) error {
	defaultJSON, err := json.Marshal(config.DefaultStake)
	if err != nil {
		return fmt.Errorf("failed to marshal default stake: %w", err)
	}
	minJSON, err := json.Marshal(config.MinStake)
	if err != nil {
		return fmt.Errorf("failed to marshal min stake: %w", err)
	}
	maxJSON, err := json.Marshal(config.MaxStake)
	if err != nil {
		return fmt.Errorf("failed to marshal max stake: %w", err)
	}

	query := `
		UPDATE bet_type_configs
		SET multiplier = $1, default_stake = $2, min_stake = $3, max_stake = $4, updated_at = NOW()
		WHERE bet_type = $5
	`

	result, err := r.q.Exec(ctx, query, config.Multiplier, defaultJSON, minJSON, maxJSON, config.BetType)
	if err != nil {
		return fmt.Errorf("failed to update config for bet type %s: %w", config.BetType, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: bet type %s", models.ErrNotFound, config.BetType)
	}

	return nil
}
