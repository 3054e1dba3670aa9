package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// WagerRepository implements the service.WagerRepository interface
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `id, user_id, session_id, bet_type, raw_text, items, bonus_used, settled_at, won, prize, created_at`

func scanWager(row pgx.Row) (*models.Wager, error) {
	var wager models.Wager
	var itemsJSON []byte
	var prizeJSON []byte

	err := row.Scan(
		&wager.ID,
		&wager.UserID,
		&wager.SessionID,
		&wager.BetType,
		&wager.RawText,
		&itemsJSON,
		&wager.BonusUsed,
		&wager.SettledAt,
		&wager.Won,
		&prizeJSON,
		&wager.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &wager.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wager items: %w", err)
	}
	if len(prizeJSON) > 0 {
		if err := json.Unmarshal(prizeJSON, &wager.Prize); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wager prize: %w", err)
		}
	}

	return &wager, nil
}

// Create inserts a wager and returns it with its assigned id
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) (*models.Wager, error) {
	itemsJSON, err := json.Marshal(wager.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wager items: %w", err)
	}

	query := `
		INSERT INTO wagers (user_id, session_id, bet_type, raw_text, items, bonus_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + wagerColumns

	created, err := scanWager(r.q.QueryRow(ctx, query,
		wager.UserID,
		wager.SessionID,
		wager.BetType,
		wager.RawText,
		itemsJSON,
		wager.BonusUsed,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create wager for user %d: %w", wager.UserID, err)
	}

	return created, nil
}

// GetByID retrieves a wager, nil if absent
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}

	return wager, nil
}

// GetBySession returns a session's wagers, optionally only unsettled ones
func (r *WagerRepository) GetBySession(ctx context.Context, sessionID int64, unsettledOnly bool) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE session_id = $1`
	if unsettledOnly {
		query += ` AND settled_at IS NULL`
	}
	query += ` ORDER BY id`

	return r.queryWagers(ctx, query, sessionID)
}

// GetByUser returns a user's most recent wagers
func (r *WagerRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE user_id = $1 ORDER BY id DESC LIMIT $2`

	return r.queryWagers(ctx, query, userID, limit)
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*models.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wagers: %w", err)
	}

	return wagers, nil
}

// Delete removes a wager. Only the cancel-before-close path uses this.
func (r *WagerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM wagers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete wager %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: wager %d", models.ErrNotFound, id)
	}

	return nil
}

// MarkSettled writes the settlement outcome. The settled_at IS NULL guard
// makes settlement idempotent per wager.
func (r *WagerRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time, won bool, prize map[string]int64) error {
	var prizeJSON []byte
	if won {
		var err error
		prizeJSON, err = json.Marshal(prize)
		if err != nil {
			return fmt.Errorf("failed to marshal wager prize: %w", err)
		}
	}

	query := `
		UPDATE wagers
		SET settled_at = $1, won = $2, prize = $3
		WHERE id = $4 AND settled_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, settledAt, won, prizeJSON, id)
	if err != nil {
		return fmt.Errorf("failed to settle wager %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: wager %d is already settled", models.ErrStateConflict, id)
	}

	return nil
}
