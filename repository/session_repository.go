package repository

import (
	"context"
	"fmt"
	"time"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// SessionRepository implements the service.SessionRepository interface
type SessionRepository struct {
	q queryable
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

// newSessionRepositoryWithTx creates a new session repository with a transaction
func newSessionRepositoryWithTx(tx queryable) *SessionRepository {
	return &SessionRepository{q: tx}
}

const sessionColumns = `id, region, date, slot, state, close_at, created_at, closed_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.Region,
		&session.Date,
		&session.Slot,
		&session.State,
		&session.CloseAt,
		&session.CreatedAt,
		&session.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new open session. A duplicate (region, date, slot)
// returns models.ErrStateConflict.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (region, date, slot, state, close_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sessionColumns

	created, err := scanSession(r.q.QueryRow(ctx, query,
		session.Region,
		session.Date,
		session.Slot,
		models.SessionStateOpen,
		session.CloseAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: session %s %s %s already exists",
				models.ErrStateConflict, session.Region, session.Date.Format("2006-01-02"), session.Slot)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return created, nil
}

// GetByID retrieves a session, nil if absent
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}

	return session, nil
}

// GetByKey retrieves the session for a region, date and slot, nil if absent
func (r *SessionRepository) GetByKey(ctx context.Context, region string, date time.Time, slot string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE region = $1 AND date = $2 AND slot = $3`

	session, err := scanSession(r.q.QueryRow(ctx, query, region, date, slot))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s %s %s: %w", region, date.Format("2006-01-02"), slot, err)
	}

	return session, nil
}

// GetOpen returns all sessions currently accepting wagers
func (r *SessionRepository) GetOpen(ctx context.Context) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE state = 'open' ORDER BY close_at`

	return r.querySessions(ctx, query)
}

// GetExpiredOpen returns open sessions whose close time has passed
func (r *SessionRepository) GetExpiredOpen(ctx context.Context, now time.Time) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE state = 'open' AND close_at <= $1 ORDER BY close_at`

	return r.querySessions(ctx, query, now)
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]*models.Session, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// Close transitions a session from open to closed in a single conditional
// statement, so concurrent closers cannot both succeed.
func (r *SessionRepository) Close(ctx context.Context, id int64, closedAt time.Time) error {
	query := `
		UPDATE sessions
		SET state = 'closed', closed_at = $1
		WHERE id = $2 AND state = 'open'
	`

	result, err := r.q.Exec(ctx, query, closedAt, id)
	if err != nil {
		return fmt.Errorf("failed to close session %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %d is not open", models.ErrStateConflict, id)
	}

	return nil
}
