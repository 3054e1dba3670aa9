package repository

import (
	"context"
	"fmt"

	"bolita/database"
	"bolita/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByUserID retrieves an account with all its currency balances
func (r *AccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	query := `
		SELECT user_id, first_name, referrer, bonus, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&account.UserID,
		&account.FirstName,
		&account.Referrer,
		&account.Bonus,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}

	account.Balances, err = r.loadBalances(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (r *AccountRepository) loadBalances(ctx context.Context, userID int64) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT currency, amount FROM balances WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances for account %d: %w", userID, err)
	}
	defer rows.Close()

	balances := make(map[string]int64)
	for rows.Next() {
		var currency string
		var amount int64
		if err := rows.Scan(&currency, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[currency] = amount
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	return balances, nil
}

// Create creates a new account with zero balances
func (r *AccountRepository) Create(ctx context.Context, userID int64, firstName string, referrer *int64) (*models.Account, error) {
	query := `
		INSERT INTO users (user_id, first_name, referrer)
		VALUES ($1, $2, $3)
		RETURNING user_id, first_name, referrer, bonus, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, userID, firstName, referrer).Scan(
		&account.UserID,
		&account.FirstName,
		&account.Referrer,
		&account.Bonus,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: account %d already exists", models.ErrStateConflict, userID)
		}
		return nil, fmt.Errorf("failed to create account %d: %w", userID, err)
	}

	account.Balances = make(map[string]int64)
	return &account, nil
}

// GetAll returns every account, newest first
func (r *AccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	query := `
		SELECT user_id, first_name, referrer, bonus, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		err := rows.Scan(
			&account.UserID,
			&account.FirstName,
			&account.Referrer,
			&account.Bonus,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	for _, account := range accounts {
		account.Balances, err = r.loadBalances(ctx, account.UserID)
		if err != nil {
			return nil, err
		}
	}

	return accounts, nil
}

// AddBalance credits a currency balance, creating the row if needed
func (r *AccountRepository) AddBalance(ctx context.Context, userID int64, currency string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	query := `
		INSERT INTO balances (user_id, currency, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, currency)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`

	if _, err := r.q.Exec(ctx, query, userID, currency, amount); err != nil {
		return fmt.Errorf("failed to add %s balance for account %d: %w", currency, userID, err)
	}

	return nil
}

// DeductBalance debits a currency balance in a single conditional statement.
// The check constraint never fires because the WHERE clause guards the debit.
func (r *AccountRepository) DeductBalance(ctx context.Context, userID int64, currency string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	query := `
		UPDATE balances
		SET amount = amount - $1
		WHERE user_id = $2 AND currency = $3 AND amount >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID, currency)
	if err != nil {
		return fmt.Errorf("failed to deduct %s balance for account %d: %w", currency, userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d has less than %d %s", models.ErrInsufficientFunds, userID, amount, currency)
	}

	return nil
}

// AddBonus credits the bonus balance
func (r *AccountRepository) AddBonus(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	query := `
		UPDATE users
		SET bonus = bonus + $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add bonus for account %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, userID)
	}

	return nil
}

// DeductBonus debits the bonus balance in a single conditional statement
func (r *AccountRepository) DeductBonus(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", models.ErrValidation)
	}

	query := `
		UPDATE users
		SET bonus = bonus - $1, updated_at = NOW()
		WHERE user_id = $2 AND bonus >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct bonus for account %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d has bonus below %d", models.ErrInsufficientFunds, userID, amount)
	}

	return nil
}
