package service

import (
	"context"
	"time"

	"bolita/events"
	"bolita/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, userID int64, firstName string, referrer *int64) (*models.Account, error) {
	args := m.Called(ctx, userID, firstName, referrer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetAll(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, userID int64, currency string, amount int64) error {
	args := m.Called(ctx, userID, currency, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductBalance(ctx context.Context, userID int64, currency string, amount int64) error {
	args := m.Called(ctx, userID, currency, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) AddBonus(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) DeductBonus(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetByKey(ctx context.Context, region string, date time.Time, slot string) (*models.Session, error) {
	args := m.Called(ctx, region, date, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetOpen(ctx context.Context) ([]*models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetExpiredOpen(ctx context.Context, now time.Time) ([]*models.Session, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Close(ctx context.Context, id int64, closedAt time.Time) error {
	args := m.Called(ctx, id, closedAt)
	return args.Error(0)
}

// MockWinningNumberRepository is a mock implementation of WinningNumberRepository
type MockWinningNumberRepository struct {
	mock.Mock
}

func (m *MockWinningNumberRepository) Create(ctx context.Context, wn *models.WinningNumber) (*models.WinningNumber, error) {
	args := m.Called(ctx, wn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinningNumber), args.Error(1)
}

func (m *MockWinningNumberRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.WinningNumber, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinningNumber), args.Error(1)
}

func (m *MockWinningNumberRepository) GetRecent(ctx context.Context, limit int) ([]*models.WinningNumber, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WinningNumber), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *models.Wager) (*models.Wager, error) {
	args := m.Called(ctx, wager)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id int64) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetBySession(ctx context.Context, sessionID int64, unsettledOnly bool) ([]*models.Wager, error) {
	args := m.Called(ctx, sessionID, unsettledOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWagerRepository) MarkSettled(ctx context.Context, id int64, settledAt time.Time, won bool, prize map[string]int64) error {
	args := m.Called(ctx, id, settledAt, won, prize)
	return args.Error(0)
}

// MockBetTypeConfigRepository is a mock implementation of BetTypeConfigRepository
type MockBetTypeConfigRepository struct {
	mock.Mock
}

func (m *MockBetTypeConfigRepository) Get(ctx context.Context, betType models.BetType) (*models.BetTypeConfig, error) {
	args := m.Called(ctx, betType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetTypeConfig), args.Error(1)
}

func (m *MockBetTypeConfigRepository) GetAll(ctx context.Context) ([]*models.BetTypeConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetTypeConfig), args.Error(1)
}

func (m *MockBetTypeConfigRepository) Update(ctx context.Context, config *models.BetTypeConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

// MockExchangeRateRepository is a mock implementation of ExchangeRateRepository
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) Get(ctx context.Context, currency string) (*models.ExchangeRate, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) GetAll(ctx context.Context) ([]*models.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) Set(ctx context.Context, currency string, rate float64) error {
	args := m.Called(ctx, currency, rate)
	return args.Error(0)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockPaymentMethodRepository is a mock implementation of PaymentMethodRepository
type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) Create(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	args := m.Called(ctx, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetByID(ctx context.Context, id int64) (*models.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) GetActive(ctx context.Context, kind models.PaymentKind) ([]*models.PaymentMethod, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepository) SetActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockPaymentRequestRepository is a mock implementation of PaymentRequestRepository
type MockPaymentRequestRepository struct {
	mock.Mock
}

func (m *MockPaymentRequestRepository) Create(ctx context.Context, request *models.PaymentRequest) (*models.PaymentRequest, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) GetByID(ctx context.Context, id int64) (*models.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) GetPending(ctx context.Context) ([]*models.PaymentRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) Review(ctx context.Context, id int64, status models.PaymentRequestStatus, message string, reviewedAt time.Time) error {
	args := m.Called(ctx, id, status, message, reviewedAt)
	return args.Error(0)
}

// mockEventPublisher collects events staged during a unit of work
type mockEventPublisher struct {
	published []events.Event
}

func (p *mockEventPublisher) Publish(event events.Event) {
	p.published = append(p.published, event)
}

// MockUnitOfWork is a mock unit of work backed by the repository mocks above.
// Begin, Commit and Rollback never fail; tests assert against the repository
// expectations instead.
type MockUnitOfWork struct {
	AccountRepo        *MockAccountRepository
	SessionRepo        *MockSessionRepository
	WinningNumberRepo  *MockWinningNumberRepository
	WagerRepo          *MockWagerRepository
	BetTypeConfigRepo  *MockBetTypeConfigRepository
	ExchangeRateRepo   *MockExchangeRateRepository
	BalanceHistoryRepo *MockBalanceHistoryRepository
	PaymentMethodRepo  *MockPaymentMethodRepository
	PaymentRequestRepo *MockPaymentRequestRepository

	publisher mockEventPublisher
	began     bool
	committed bool
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		AccountRepo:        &MockAccountRepository{},
		SessionRepo:        &MockSessionRepository{},
		WinningNumberRepo:  &MockWinningNumberRepository{},
		WagerRepo:          &MockWagerRepository{},
		BetTypeConfigRepo:  &MockBetTypeConfigRepository{},
		ExchangeRateRepo:   &MockExchangeRateRepository{},
		BalanceHistoryRepo: &MockBalanceHistoryRepository{},
		PaymentMethodRepo:  &MockPaymentMethodRepository{},
		PaymentRequestRepo: &MockPaymentRequestRepository{},
	}
}

func (u *MockUnitOfWork) Begin(ctx context.Context) error {
	u.began = true
	return nil
}

func (u *MockUnitOfWork) Commit() error {
	u.committed = true
	return nil
}

func (u *MockUnitOfWork) Rollback() error {
	return nil
}

// Committed reports whether Commit was called
func (u *MockUnitOfWork) Committed() bool {
	return u.committed
}

// PublishedEvents returns the events staged on the mock bus
func (u *MockUnitOfWork) PublishedEvents() []events.Event {
	return u.publisher.published
}

func (u *MockUnitOfWork) AccountRepository() AccountRepository {
	return u.AccountRepo
}

func (u *MockUnitOfWork) SessionRepository() SessionRepository {
	return u.SessionRepo
}

func (u *MockUnitOfWork) WinningNumberRepository() WinningNumberRepository {
	return u.WinningNumberRepo
}

func (u *MockUnitOfWork) WagerRepository() WagerRepository {
	return u.WagerRepo
}

func (u *MockUnitOfWork) BetTypeConfigRepository() BetTypeConfigRepository {
	return u.BetTypeConfigRepo
}

func (u *MockUnitOfWork) ExchangeRateRepository() ExchangeRateRepository {
	return u.ExchangeRateRepo
}

func (u *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return u.BalanceHistoryRepo
}

func (u *MockUnitOfWork) PaymentMethodRepository() PaymentMethodRepository {
	return u.PaymentMethodRepo
}

func (u *MockUnitOfWork) PaymentRequestRepository() PaymentRequestRepository {
	return u.PaymentRequestRepo
}

func (u *MockUnitOfWork) EventBus() EventPublisher {
	return &u.publisher
}

// MockUnitOfWorkFactory always returns the same mock unit of work, so tests
// can stage expectations before the service call and inspect them after.
type MockUnitOfWorkFactory struct {
	UOW *MockUnitOfWork
}

func NewMockUnitOfWorkFactory() *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{UOW: NewMockUnitOfWork()}
}

func (f *MockUnitOfWorkFactory) Create() UnitOfWork {
	return f.UOW
}

// AssertExpectations asserts every repository mock's expectations
func (u *MockUnitOfWork) AssertExpectations(t mock.TestingT) {
	u.AccountRepo.AssertExpectations(t)
	u.SessionRepo.AssertExpectations(t)
	u.WinningNumberRepo.AssertExpectations(t)
	u.WagerRepo.AssertExpectations(t)
	u.BetTypeConfigRepo.AssertExpectations(t)
	u.ExchangeRateRepo.AssertExpectations(t)
	u.BalanceHistoryRepo.AssertExpectations(t)
	u.PaymentMethodRepo.AssertExpectations(t)
	u.PaymentRequestRepo.AssertExpectations(t)
}
