package service

import (
	"context"
	"testing"
	"time"

	"bolita/events"
	"bolita/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func openSession(id int64) *models.Session {
	return &models.Session{
		ID:      id,
		Region:  "florida",
		Date:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Slot:    "manana",
		State:   models.SessionStateOpen,
		CloseAt: time.Now().Add(time.Hour),
	}
}

func TestWagerService_PlaceWager_BonusFirst(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	account := &models.Account{
		UserID:   7,
		Bonus:    300,
		Balances: map[string]int64{"USD": 10000},
	}
	created := &models.Wager{
		ID:        42,
		UserID:    7,
		SessionID: 1,
		BetType:   models.BetTypeStraight,
		Items:     []models.StakeItem{{Pattern: "12", Currency: "USD", Amount: 500}},
		BonusUsed: 300,
	}

	// Mock expectations
	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(openSession(1), nil)
	uow.BetTypeConfigRepo.On("Get", ctx, models.BetTypeStraight).Return(straightConfig(), nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	// The bonus split is decided before the row is written
	uow.WagerRepo.On("Create", ctx, mock.MatchedBy(func(w *models.Wager) bool {
		return w.UserID == 7 && w.BonusUsed == 300 && len(w.Items) == 1
	})).Return(created, nil)
	uow.AccountRepo.On("DeductBonus", ctx, int64(7), int64(300)).Return(nil)
	uow.AccountRepo.On("DeductBalance", ctx, int64(7), "USD", int64(200)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)

	result, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 5 usd", "CUP")

	require.NoError(t, err)
	assert.Equal(t, created, result.Wager)
	assert.Equal(t, account, result.Account)
	assert.Empty(t, result.Rejected)
	assert.True(t, uow.Committed())

	var placed *events.WagerPlacedEvent
	for _, event := range uow.PublishedEvents() {
		if e, ok := event.(events.WagerPlacedEvent); ok {
			placed = &e
		}
	}
	require.NotNil(t, placed)
	assert.Equal(t, int64(42), placed.WagerID)
	assert.Equal(t, int64(300), placed.BonusUsed)

	uow.AssertExpectations(t)
}

func TestWagerService_PlaceWager_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	account := &models.Account{
		UserID:   7,
		Balances: map[string]int64{"USD": 100},
	}

	// Mock expectations
	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(openSession(1), nil)
	uow.BetTypeConfigRepo.On("Get", ctx, models.BetTypeStraight).Return(straightConfig(), nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)

	_, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 5 usd", "CUP")

	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.False(t, uow.Committed())
	uow.WagerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	uow.AccountRepo.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWagerService_PlaceWager_ClosedSession(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	closed := openSession(1)
	closed.State = models.SessionStateClosed

	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(closed, nil)

	_, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 5", "CUP")

	assert.ErrorIs(t, err, models.ErrStateConflict)
	assert.False(t, uow.Committed())
}

func TestWagerService_PlaceWager_ExpiredSession(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	// Still marked open but past its close time; the tick has not run yet
	expired := openSession(1)
	expired.CloseAt = time.Now().Add(-time.Minute)

	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(expired, nil)

	_, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 5", "CUP")

	assert.ErrorIs(t, err, models.ErrStateConflict)
}

func TestWagerService_PlaceWager_BelowMinimumStake(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(openSession(1), nil)
	uow.BetTypeConfigRepo.On("Get", ctx, models.BetTypeStraight).Return(straightConfig(), nil)

	_, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 1 usd", "CUP")

	assert.ErrorIs(t, err, models.ErrValidation)
	uow.AccountRepo.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestWagerService_PlaceWager_ReferralCommission(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 500)

	referrerID := int64(9)
	account := &models.Account{
		UserID:   7,
		Referrer: &referrerID,
		Balances: map[string]int64{"USD": 10000},
	}
	referrer := &models.Account{
		UserID:   9,
		Balances: map[string]int64{"USD": 2000},
	}
	created := &models.Wager{
		ID:        42,
		UserID:    7,
		SessionID: 1,
		BetType:   models.BetTypeStraight,
		Items:     []models.StakeItem{{Pattern: "12", Currency: "USD", Amount: 500}},
	}

	// Mock expectations
	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(openSession(1), nil)
	uow.BetTypeConfigRepo.On("Get", ctx, models.BetTypeStraight).Return(straightConfig(), nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(9)).Return(referrer, nil)
	uow.WagerRepo.On("Create", ctx, mock.AnythingOfType("*models.Wager")).Return(created, nil)
	uow.AccountRepo.On("DeductBalance", ctx, int64(7), "USD", int64(500)).Return(nil)
	// 5% of the 500 cost
	uow.AccountRepo.On("AddBalance", ctx, int64(9), "USD", int64(25)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID != 9 || h.TransactionType == models.TransactionTypeCommission
	})).Return(nil)

	_, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 5 usd", "CUP")

	require.NoError(t, err)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}

func TestWagerService_PlaceWager_NoCommissionOutsideBaseCurrency(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 500)

	referrerID := int64(9)
	account := &models.Account{
		UserID:   7,
		Referrer: &referrerID,
		Balances: map[string]int64{"CUP": 100000},
	}
	created := &models.Wager{
		ID:        42,
		UserID:    7,
		SessionID: 1,
		BetType:   models.BetTypeStraight,
		Items:     []models.StakeItem{{Pattern: "12", Currency: "CUP", Amount: 5000}},
	}

	// Mock expectations
	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(openSession(1), nil)
	uow.BetTypeConfigRepo.On("Get", ctx, models.BetTypeStraight).Return(straightConfig(), nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	uow.WagerRepo.On("Create", ctx, mock.AnythingOfType("*models.Wager")).Return(created, nil)
	uow.AccountRepo.On("DeductBalance", ctx, int64(7), "CUP", int64(5000)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)

	_, err := service.PlaceWager(ctx, 7, 1, models.BetTypeStraight, "12 con 50", "CUP")

	require.NoError(t, err)
	assert.True(t, uow.Committed())
	// A CUP-only wager pays the referrer nothing
	uow.AccountRepo.AssertNotCalled(t, "AddBalance")
	uow.AccountRepo.AssertNotCalled(t, "GetByUserID", ctx, int64(9))
	uow.AssertExpectations(t)
}

func TestWagerService_CancelWager_RefundsBonusSplit(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	wager := &models.Wager{
		ID:        42,
		UserID:    7,
		SessionID: 1,
		BetType:   models.BetTypeStraight,
		Items:     []models.StakeItem{{Pattern: "12", Currency: "USD", Amount: 500}},
		BonusUsed: 300,
	}
	account := &models.Account{UserID: 7, Balances: map[string]int64{"USD": 200}}

	// Mock expectations
	uow.WagerRepo.On("GetByID", ctx, int64(42)).Return(wager, nil)
	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(openSession(1), nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	// The refund restores the exact split of the original debit
	uow.AccountRepo.On("AddBonus", ctx, int64(7), int64(300)).Return(nil)
	uow.AccountRepo.On("AddBalance", ctx, int64(7), "USD", int64(200)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)
	uow.WagerRepo.On("Delete", ctx, int64(42)).Return(nil)

	err := service.CancelWager(ctx, 7, 42)

	require.NoError(t, err)
	assert.True(t, uow.Committed())

	var cancelled bool
	for _, event := range uow.PublishedEvents() {
		if _, ok := event.(events.WagerCancelledEvent); ok {
			cancelled = true
		}
	}
	assert.True(t, cancelled)
	uow.AssertExpectations(t)
}

func TestWagerService_CancelWager_SessionClosed(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	wager := &models.Wager{ID: 42, UserID: 7, SessionID: 1}
	closed := openSession(1)
	closed.State = models.SessionStateClosed

	uow.WagerRepo.On("GetByID", ctx, int64(42)).Return(wager, nil)
	uow.SessionRepo.On("GetByID", ctx, int64(1)).Return(closed, nil)

	err := service.CancelWager(ctx, 7, 42)

	assert.ErrorIs(t, err, models.ErrStateConflict)
	uow.WagerRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestWagerService_CancelWager_AlreadySettled(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	settledAt := time.Now()
	wager := &models.Wager{ID: 42, UserID: 7, SessionID: 1, SettledAt: &settledAt}

	uow.WagerRepo.On("GetByID", ctx, int64(42)).Return(wager, nil)

	err := service.CancelWager(ctx, 7, 42)

	assert.ErrorIs(t, err, models.ErrStateConflict)
}

func TestWagerService_CancelWager_NotOwner(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	wager := &models.Wager{ID: 42, UserID: 7, SessionID: 1}

	uow.WagerRepo.On("GetByID", ctx, int64(42)).Return(wager, nil)

	err := service.CancelWager(ctx, 8, 42)

	// Someone else's wager looks like it does not exist
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(models.ErrValidation))
	assert.False(t, IsRetryable(models.ErrInsufficientFunds))
	assert.False(t, IsRetryable(models.ErrStateConflict))
	assert.False(t, IsRetryable(models.ErrNotFound))
	assert.True(t, IsRetryable(assert.AnError))
}

func TestWagerService_UpdateBetTypeConfig_Persists(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewWagerService(factory, nil, "USD", 0)

	config := &models.BetTypeConfig{
		BetType:      models.BetTypeStraight,
		Multiplier:   80,
		DefaultStake: map[string]int64{"CUP": 7000},
		MinStake:     map[string]int64{"CUP": 500},
		MaxStake:     map[string]int64{"CUP": 10000000},
	}

	// Mock expectations
	uow.BetTypeConfigRepo.On("Update", ctx, config).Return(nil)

	err := service.UpdateBetTypeConfig(ctx, config)

	require.NoError(t, err)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}

func TestWagerService_UpdateBetTypeConfig_Rejected(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	service := NewWagerService(factory, nil, "USD", 0)

	err := service.UpdateBetTypeConfig(context.Background(), &models.BetTypeConfig{BetType: "chance", Multiplier: 10})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = service.UpdateBetTypeConfig(context.Background(), &models.BetTypeConfig{BetType: models.BetTypeCombo, Multiplier: 0})
	assert.ErrorIs(t, err, models.ErrValidation)

	factory.UOW.BetTypeConfigRepo.AssertNotCalled(t, "Update")
}
