package repository

import (
	"context"
	"fmt"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// PaymentMethodRepository implements the service.PaymentMethodRepository interface
type PaymentMethodRepository struct {
	q queryable
}

// NewPaymentMethodRepository creates a new payment method repository
func NewPaymentMethodRepository(db *database.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{q: db.Pool}
}

// newPaymentMethodRepositoryWithTx creates a new payment method repository with a transaction
func newPaymentMethodRepositoryWithTx(tx queryable) *PaymentMethodRepository {
	return &PaymentMethodRepository{q: tx}
}

// Create inserts a payment method
func (r *PaymentMethodRepository) Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	query := `
		INSERT INTO payment_methods (kind, name, card, confirm, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, kind, name, card, confirm, active, created_at
	`

	var created models.PaymentMethod
	err := r.q.QueryRow(ctx, query,
		method.Kind,
		method.Name,
		method.Card,
		method.Confirm,
		method.Active,
	).Scan(
		&created.ID,
		&created.Kind,
		&created.Name,
		&created.Card,
		&created.Confirm,
		&created.Active,
		&created.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a method, nil if absent
func (r *PaymentMethodRepository) GetByID(ctx context.Context, id int64) (*models.PaymentMethod, error) {
	query := `SELECT id, kind, name, card, confirm, active, created_at FROM payment_methods WHERE id = $1`

	var method models.PaymentMethod
	err := r.q.QueryRow(ctx, query, id).Scan(
		&method.ID,
		&method.Kind,
		&method.Name,
		&method.Card,
		&method.Confirm,
		&method.Active,
		&method.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment method %d: %w", id, err)
	}

	return &method, nil
}

// GetActive returns active methods of one kind
func (r *PaymentMethodRepository) GetActive(ctx context.Context, kind models.PaymentKind) ([]*models.PaymentMethod, error) {
	query := `
		SELECT id, kind, name, card, confirm, active, created_at
		FROM payment_methods
		WHERE kind = $1 AND active
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get active payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*models.PaymentMethod
	for rows.Next() {
		var method models.PaymentMethod
		err := rows.Scan(
			&method.ID,
			&method.Kind,
			&method.Name,
			&method.Card,
			&method.Confirm,
			&method.Active,
			&method.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, &method)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment methods: %w", err)
	}

	return methods, nil
}

// SetActive toggles a method's visibility
func (r *PaymentMethodRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.q.Exec(ctx, `UPDATE payment_methods SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update payment method %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment method %d", models.ErrNotFound, id)
	}

	return nil
}
