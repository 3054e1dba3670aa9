package repository

import (
	"context"
	"fmt"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// WinningNumberRepository implements the service.WinningNumberRepository interface
type WinningNumberRepository struct {
	q queryable
}

// NewWinningNumberRepository creates a new winning number repository
func NewWinningNumberRepository(db *database.DB) *WinningNumberRepository {
	return &WinningNumberRepository{q: db.Pool}
}

// newWinningNumberRepositoryWithTx creates a new winning number repository with a transaction
func newWinningNumberRepositoryWithTx(tx queryable) *WinningNumberRepository {
	return &WinningNumberRepository{q: tx}
}

// Create inserts the winning number for a session. A second publish for the
// same session or the same (region, date, slot) returns models.ErrStateConflict.
func (r *WinningNumberRepository) Create(ctx context.Context, wn *models.WinningNumber) (*models.WinningNumber, error) {
	query := `
		INSERT INTO winning_numbers (session_id, region, date, slot, digits)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, region, date, slot, digits, created_at
	`

	var created models.WinningNumber
	err := r.q.QueryRow(ctx, query,
		wn.SessionID,
		wn.Region,
		wn.Date,
		wn.Slot,
		wn.Digits,
	).Scan(
		&created.ID,
		&created.SessionID,
		&created.Region,
		&created.Date,
		&created.Slot,
		&created.Digits,
		&created.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: winning number already published for session %d", models.ErrStateConflict, wn.SessionID)
		}
		return nil, fmt.Errorf("failed to create winning number for session %d: %w", wn.SessionID, err)
	}

	return &created, nil
}

// GetBySessionID retrieves the winning number for a session, nil if absent
func (r *WinningNumberRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.WinningNumber, error) {
	query := `
		SELECT id, session_id, region, date, slot, digits, created_at
		FROM winning_numbers
		WHERE session_id = $1
	`

	var wn models.WinningNumber
	err := r.q.QueryRow(ctx, query, sessionID).Scan(
		&wn.ID,
		&wn.SessionID,
		&wn.Region,
		&wn.Date,
		&wn.Slot,
		&wn.Digits,
		&wn.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get winning number for session %d: %w", sessionID, err)
	}

	return &wn, nil
}

// GetRecent returns the most recently published numbers, newest first
func (r *WinningNumberRepository) GetRecent(ctx context.Context, limit int) ([]*models.WinningNumber, error) {
	query := `
		SELECT id, session_id, region, date, slot, digits, created_at
		FROM winning_numbers
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent winning numbers: %w", err)
	}
	defer rows.Close()

	var numbers []*models.WinningNumber
	for rows.Next() {
		var wn models.WinningNumber
		err := rows.Scan(
			&wn.ID,
			&wn.SessionID,
			&wn.Region,
			&wn.Date,
			&wn.Slot,
			&wn.Digits,
			&wn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan winning number: %w", err)
		}
		numbers = append(numbers, &wn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winning numbers: %w", err)
	}

	return numbers, nil
}
