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

// PaymentRequestRepository implements the service.PaymentRequestRepository interface
type PaymentRequestRepository struct {
	q queryable
}

// NewPaymentRequestRepository creates a new payment request repository
func NewPaymentRequestRepository(db *database.DB) *PaymentRequestRepository {
	return &PaymentRequestRepository{q: db.Pool}
}

// newPaymentRequestRepositoryWithTx creates a new payment request repository with a transaction
func newPaymentRequestRepositoryWithTx(tx queryable) *PaymentRequestRepository {
	return &PaymentRequestRepository{q: tx}
}

const paymentRequestColumns = `id, user_id, type, amounts, method_id, proof_file_id, card, target_user, status, admin_message, created_at, reviewed_at`

func scanPaymentRequest(row pgx.Row) (*models.PaymentRequest, error) {
	var request models.PaymentRequest
	var amountsJSON []byte

	err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.Type,
		&amountsJSON,
		&request.MethodID,
		&request.ProofFileID,
		&request.Card,
		&request.TargetUser,
		&request.Status,
		&request.AdminMessage,
		&request.CreatedAt,
		&request.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(amountsJSON, &request.Amounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request amounts: %w", err)
	}

	return &request, nil
}

// Create inserts a pending request
func (r *PaymentRequestRepository) Create(ctx context.Context, request *models.PaymentRequest) (*models.PaymentRequest, error) {
	amountsJSON, err := json.Marshal(request.Amounts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request amounts: %w", err)
	}

	query := `
		INSERT INTO payment_requests (user_id, type, amounts, method_id, proof_file_id, card, target_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + paymentRequestColumns

	created, err := scanPaymentRequest(r.q.QueryRow(ctx, query,
		request.UserID,
		request.Type,
		amountsJSON,
		request.MethodID,
		request.ProofFileID,
		request.Card,
		request.TargetUser,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request for user %d: %w", request.UserID, err)
	}

	return created, nil
}

// GetByID retrieves a request, nil if absent
func (r *PaymentRequestRepository) GetByID(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	query := `SELECT ` + paymentRequestColumns + ` FROM payment_requests WHERE id = $1`

	request, err := scanPaymentRequest(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment request %d: %w", id, err)
	}

	return request, nil
}

// GetPending returns all requests awaiting review, oldest first
func (r *PaymentRequestRepository) GetPending(ctx context.Context) ([]*models.PaymentRequest, error) {
	query := `SELECT ` + paymentRequestColumns + ` FROM payment_requests WHERE status = 'pending' ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending payment requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.PaymentRequest
	for rows.Next() {
		request, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment request: %w", err)
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment requests: %w", err)
	}

	return requests, nil
}

// Review resolves a pending request in a single conditional statement so two
// admins cannot both resolve it.
func (r *PaymentRequestRepository) Review(ctx context.Context, id int64, status models.PaymentRequestStatus, message string, reviewedAt time.Time) error {
	query := `
		UPDATE payment_requests
		SET status = $1, admin_message = $2, reviewed_at = $3
		WHERE id = $4 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, message, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("failed to review payment request %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment request %d is not pending", models.ErrStateConflict, id)
	}

	return nil
}
