package service

import (
	"context"
	"time"

	"bolita/events"
	"bolita/models"
)

// AccountRepository defines account persistence. Balance mutations are
// single conditional statements so concurrent debits cannot overdraw.
type AccountRepository interface {
	// GetByUserID retrieves an account with all currency balances, nil if absent
	GetByUserID(ctx context.Context, userID int64) (*models.Account, error)

	// Create creates a new account with zero balances
	Create(ctx context.Context, userID int64, firstName string, referrer *int64) (*models.Account, error)

	// GetAll returns every account
	GetAll(ctx context.Context) ([]*models.Account, error)

	// AddBalance credits a currency balance, creating the row if needed
	AddBalance(ctx context.Context, userID int64, currency string, amount int64) error

	// DeductBalance debits a currency balance, returning
	// models.ErrInsufficientFunds without mutating when it would go negative.
	DeductBalance(ctx context.Context, userID int64, currency string, amount int64) error

	// AddBonus credits the bonus balance
	AddBonus(ctx context.Context, userID int64, amount int64) error

	// DeductBonus debits the bonus balance, returning
	// models.ErrInsufficientFunds when it would go negative.
	DeductBonus(ctx context.Context, userID int64, amount int64) error
}

// SessionRepository defines drawing session persistence
type SessionRepository interface {
	// Create inserts a new open session. A duplicate (region, date, slot)
	// returns models.ErrStateConflict.
	Create(ctx context.Context, session *models.Session) (*models.Session, error)

	// GetByID retrieves a session, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Session, error)

	// GetByKey retrieves the session for a region, date and slot, nil if absent
	GetByKey(ctx context.Context, region string, date time.Time, slot string) (*models.Session, error)

	// GetOpen returns all sessions currently accepting wagers
	GetOpen(ctx context.Context) ([]*models.Session, error)

	// GetExpiredOpen returns open sessions whose close time has passed
	GetExpiredOpen(ctx context.Context, now time.Time) ([]*models.Session, error)

	// Close transitions a session from open to closed. Returns
	// models.ErrStateConflict if the session is not open.
	Close(ctx context.Context, id int64, closedAt time.Time) error
}

// WinningNumberRepository defines winning number persistence
type WinningNumberRepository interface {
	// Create inserts the winning number for a session. A second publish for
	// the same session or slot returns models.ErrStateConflict.
	Create(ctx context.Context, wn *models.WinningNumber) (*models.WinningNumber, error)

	// GetBySessionID retrieves the winning number for a session, nil if absent
	GetBySessionID(ctx context.Context, sessionID int64) (*models.WinningNumber, error)

	// GetRecent returns the most recently published numbers
	GetRecent(ctx context.Context, limit int) ([]*models.WinningNumber, error)
}

// WagerRepository defines wager persistence
type WagerRepository interface {
	// Create inserts a wager and returns it with its assigned id
	Create(ctx context.Context, wager *models.Wager) (*models.Wager, error)

	// GetByID retrieves a wager, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Wager, error)

	// GetBySession returns a session's wagers, optionally only unsettled ones
	GetBySession(ctx context.Context, sessionID int64, unsettledOnly bool) ([]*models.Wager, error)

	// GetByUser returns a user's most recent wagers
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Wager, error)

	// Delete removes a wager (cancel-before-close path)
	Delete(ctx context.Context, id int64) error

	// MarkSettled writes the settlement outcome exactly once. Returns
	// models.ErrStateConflict if the wager is already settled.
	MarkSettled(ctx context.Context, id int64, settledAt time.Time, won bool, prize map[string]int64) error
}

// BetTypeConfigRepository defines bet type configuration persistence
type BetTypeConfigRepository interface {
	// Get retrieves the configuration for one bet type, nil if absent
	Get(ctx context.Context, betType models.BetType) (*models.BetTypeConfig, error)

	// GetAll returns every bet type configuration
	GetAll(ctx context.Context) ([]*models.BetTypeConfig, error)

	// Update overwrites a bet type configuration
	Update(ctx context.Context, config *models.BetTypeConfig) error
}

// ExchangeRateRepository defines exchange rate persistence
type ExchangeRateRepository interface {
	// Get retrieves the rate for a currency, nil if absent
	Get(ctx context.Context, currency string) (*models.ExchangeRate, error)

	// GetAll returns every configured rate
	GetAll(ctx context.Context) ([]*models.ExchangeRate, error)

	// Set upserts the rate for a currency
	Set(ctx context.Context, currency string, rate float64) error
}

// BalanceHistoryRepository defines the audit trail of balance changes
type BalanceHistoryRepository interface {
	// Record inserts a history row
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns a user's most recent history rows
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// PaymentMethodRepository defines payment method persistence
type PaymentMethodRepository interface {
	// Create inserts a payment method
	Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error)

	// GetByID retrieves a method, nil if absent
	GetByID(ctx context.Context, id int64) (*models.PaymentMethod, error)

	// GetActive returns active methods of one kind
	GetActive(ctx context.Context, kind models.PaymentKind) ([]*models.PaymentMethod, error)

	// SetActive toggles a method's visibility
	SetActive(ctx context.Context, id int64, active bool) error
}

// PaymentRequestRepository defines payment request persistence
type PaymentRequestRepository interface {
	// Create inserts a pending request
	Create(ctx context.Context, request *models.PaymentRequest) (*models.PaymentRequest, error)

	// GetByID retrieves a request, nil if absent
	GetByID(ctx context.Context, id int64) (*models.PaymentRequest, error)

	// GetPending returns all requests awaiting review
	GetPending(ctx context.Context) ([]*models.PaymentRequest, error)

	// Review resolves a pending request. Returns models.ErrStateConflict if
	// the request was already reviewed.
	Review(ctx context.Context, id int64, status models.PaymentRequestStatus, message string, reviewedAt time.Time) error
}

// EventPublisher stages events for emission after the enclosing
// transaction commits.
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork represents one database transaction with all repositories
// bound to it and an event bus flushed on commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	SessionRepository() SessionRepository
	WinningNumberRepository() WinningNumberRepository
	WagerRepository() WagerRepository
	BetTypeConfigRepository() BetTypeConfigRepository
	ExchangeRateRepository() ExchangeRateRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	PaymentMethodRepository() PaymentMethodRepository
	PaymentRequestRepository() PaymentRequestRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService manages accounts and referrals
type UserService interface {
	// GetOrCreateAccount fetches an account, creating it on first contact.
	// The referrer is bound only at creation and never changes afterwards.
	GetOrCreateAccount(ctx context.Context, userID int64, firstName string, referrer *int64) (*models.Account, error)

	// GetAccount fetches an account, models.ErrNotFound if absent
	GetAccount(ctx context.Context, userID int64) (*models.Account, error)

	// GetBalanceHistory returns a user's recent balance changes
	GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// WagerService manages wager intake and cancellation
type WagerService interface {
	// PlaceWager parses the wager text, reserves its cost and records the
	// wager against an open session atomically.
	PlaceWager(ctx context.Context, userID, sessionID int64, betType models.BetType, text, defaultCurrency string) (*models.PlaceWagerResult, error)

	// CancelWager reverses an unsettled wager while its session is open
	CancelWager(ctx context.Context, userID, wagerID int64) error

	// GetUserWagers returns a user's recent wagers
	GetUserWagers(ctx context.Context, userID int64, limit int) ([]*models.Wager, error)

	// GetBetTypeConfigs lists every bet type's multiplier and stake bounds
	GetBetTypeConfigs(ctx context.Context) ([]*models.BetTypeConfig, error)

	// UpdateBetTypeConfig overwrites a bet type's multiplier and stake
	// bounds. Changes apply to future wagers and settlements only.
	UpdateBetTypeConfig(ctx context.Context, config *models.BetTypeConfig) error
}

// SessionService manages drawing session lifecycle
type SessionService interface {
	// OpenSession creates an open session for a scheduled window
	OpenSession(ctx context.Context, region string, date time.Time, slot string) (*models.Session, error)

	// CloseSession stops a session from accepting wagers
	CloseSession(ctx context.Context, sessionID int64) (*models.Session, error)

	// GetOpenSessions lists sessions currently accepting wagers
	GetOpenSessions(ctx context.Context) ([]*models.Session, error)

	// GetSession fetches a session, models.ErrNotFound if absent
	GetSession(ctx context.Context, sessionID int64) (*models.Session, error)

	// Tick closes expired sessions and opens newly due ones. The scheduler
	// calls this once a minute; it is safe to call concurrently.
	Tick(ctx context.Context, now time.Time) error
}

// SettlementService resolves closed sessions against published numbers
type SettlementService interface {
	// PublishWinner records the winning number for a closed session and
	// settles every wager in it.
	PublishWinner(ctx context.Context, sessionID int64, digits string) (*models.SettlementResult, error)

	// ResettleSession retries wagers a previous settlement pass failed on
	ResettleSession(ctx context.Context, sessionID int64) (*models.SettlementResult, error)

	// GetRecentNumbers lists the latest published winning numbers
	GetRecentNumbers(ctx context.Context, limit int) ([]*models.WinningNumber, error)
}

// RateService serves exchange rates with a cache in front of storage
type RateService interface {
	// GetRate returns the rate for a currency, models.ErrNotFound if absent
	GetRate(ctx context.Context, currency string) (float64, error)

	// SetRate updates a rate and invalidates the cache
	SetRate(ctx context.Context, currency string, rate float64) error

	// ToBase converts an amount in a currency to base-currency minor units
	ToBase(ctx context.Context, currency string, amount int64) (int64, error)

	// FromBase converts base-currency minor units into a currency
	FromBase(ctx context.Context, currency string, amount int64) (int64, error)
}

// PaymentService manages deposits, withdrawals and transfers
type PaymentService interface {
	// RequestDeposit files a deposit claim with its transfer proof
	RequestDeposit(ctx context.Context, userID int64, amounts map[string]int64, methodID int64, proofFileID string) (*models.PaymentRequest, error)

	// RequestWithdrawal debits the amount up front and files the request.
	// Fails outside the withdrawal window or below the minimum.
	RequestWithdrawal(ctx context.Context, userID int64, amounts map[string]int64, methodID int64, card string) (*models.PaymentRequest, error)

	// Transfer moves balance between two accounts immediately
	Transfer(ctx context.Context, fromUserID, toUserID int64, currency string, amount int64) error

	// ReviewRequest approves or rejects a pending request
	ReviewRequest(ctx context.Context, requestID int64, approve bool, adminMessage string) (*models.PaymentRequest, error)

	// GetPendingRequests lists requests awaiting review
	GetPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error)

	// GetActiveMethods lists the payment methods users may pick from
	GetActiveMethods(ctx context.Context, kind models.PaymentKind) ([]*models.PaymentMethod, error)

	// AddMethod registers a new payment method, active immediately
	AddMethod(ctx context.Context, kind models.PaymentKind, name, card, confirm string) (*models.PaymentMethod, error)

	// SetMethodActive shows or hides a payment method
	SetMethodActive(ctx context.Context, methodID int64, active bool) error
}
