package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"bolita/events"
	"bolita/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubRateService serves fixed rates without touching storage
type stubRateService struct {
	base  string
	rates map[string]float64
}

func (s *stubRateService) GetRate(_ context.Context, currency string) (float64, error) {
	if currency == s.base {
		return 1, nil
	}
	rate, ok := s.rates[currency]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", models.ErrNotFound, currency)
	}
	return rate, nil
}

func (s *stubRateService) SetRate(context.Context, string, float64) error {
	return nil
}

func (s *stubRateService) ToBase(ctx context.Context, currency string, amount int64) (int64, error) {
	rate, err := s.GetRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(float64(amount) / rate)), nil
}

func (s *stubRateService) FromBase(ctx context.Context, currency string, amount int64) (int64, error) {
	rate, err := s.GetRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(float64(amount) * rate)), nil
}

func newTestPaymentService(factory UnitOfWorkFactory, window *WithdrawWindow) PaymentService {
	rates := &stubRateService{base: "USD", rates: map[string]float64{"CUP": 110}}
	return NewPaymentService(factory, rates, window, PaymentConfig{
		BaseCurrency:    "USD",
		WithdrawMinimum: 100,
		BonusCUP:        7000,
	})
}

func withdrawMethod() *models.PaymentMethod {
	return &models.PaymentMethod{ID: 3, Kind: models.PaymentKindWithdraw, Name: "Tarjeta", Active: true}
}

func depositMethod() *models.PaymentMethod {
	return &models.PaymentMethod{ID: 2, Kind: models.PaymentKindDeposit, Name: "Tarjeta", Active: true}
}

func TestPaymentService_RequestWithdrawal_WindowClosed(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	window := &WithdrawWindow{}
	service := newTestPaymentService(factory, window)

	_, err := service.RequestWithdrawal(context.Background(), 7, map[string]int64{"CUP": 20000}, 3, "9224")

	assert.ErrorIs(t, err, models.ErrStateConflict)
	factory.UOW.PaymentRequestRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_RequestWithdrawal_BelowMinimum(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	window := &WithdrawWindow{}
	window.set(true)
	service := newTestPaymentService(factory, window)

	// 5000 CUP at rate 110 is 45 base minor units, under the minimum of 100
	_, err := service.RequestWithdrawal(context.Background(), 7, map[string]int64{"CUP": 5000}, 3, "9224")

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestPaymentService_RequestWithdrawal_DebitsUpFront(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	window := &WithdrawWindow{}
	window.set(true)
	service := newTestPaymentService(factory, window)

	account := &models.Account{UserID: 7, Balances: map[string]int64{"CUP": 50000}}
	created := &models.PaymentRequest{
		ID:      12,
		UserID:  7,
		Type:    models.PaymentRequestWithdraw,
		Amounts: map[string]int64{"CUP": 20000},
		Card:    "9224-0699",
		Status:  models.PaymentStatusPending,
	}

	// Mock expectations
	uow.PaymentMethodRepo.On("GetByID", ctx, int64(3)).Return(withdrawMethod(), nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	uow.PaymentRequestRepo.On("Create", ctx, mock.MatchedBy(func(r *models.PaymentRequest) bool {
		return r.UserID == 7 && r.Type == models.PaymentRequestWithdraw && r.Card == "9224-0699"
	})).Return(created, nil)
	uow.AccountRepo.On("DeductBalance", ctx, int64(7), "CUP", int64(20000)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeWithdrawal && h.ChangeAmount == -20000
	})).Return(nil)

	request, err := service.RequestWithdrawal(ctx, 7, map[string]int64{"CUP": 20000}, 3, "9224-0699")

	require.NoError(t, err)
	assert.Equal(t, created, request)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}

func TestPaymentService_RequestDeposit_RequiresProof(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	service := newTestPaymentService(factory, &WithdrawWindow{})

	_, err := service.RequestDeposit(context.Background(), 7, map[string]int64{"CUP": 50000}, 2, "")

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestPaymentService_RequestDeposit_WrongMethodKind(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	// A withdraw-kind method cannot receive deposits
	uow.PaymentMethodRepo.On("GetByID", ctx, int64(3)).Return(withdrawMethod(), nil)

	_, err := service.RequestDeposit(ctx, 7, map[string]int64{"CUP": 50000}, 3, "proof-file")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPaymentService_ReviewRequest_ApproveDepositGrantsBonus(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	request := &models.PaymentRequest{
		ID:      12,
		UserID:  7,
		Type:    models.PaymentRequestDeposit,
		Amounts: map[string]int64{"CUP": 50000},
		Status:  models.PaymentStatusPending,
	}
	account := &models.Account{UserID: 7, Balances: map[string]int64{"CUP": 0}}

	// Mock expectations
	uow.PaymentRequestRepo.On("GetByID", ctx, int64(12)).Return(request, nil)
	uow.PaymentRequestRepo.On("Review", ctx, int64(12), models.PaymentStatusApproved, "ok",
		mock.AnythingOfType("time.Time")).Return(nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	uow.AccountRepo.On("AddBalance", ctx, int64(7), "CUP", int64(50000)).Return(nil)
	// 7000 CUP bonus at rate 110 lands as 64 base minor units
	uow.AccountRepo.On("AddBonus", ctx, int64(7), int64(64)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)

	reviewed, err := service.ReviewRequest(ctx, 12, true, "ok")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, reviewed.Status)
	assert.True(t, uow.Committed())

	var notified bool
	for _, event := range uow.PublishedEvents() {
		if e, ok := event.(events.PaymentReviewedEvent); ok {
			notified = true
			assert.Equal(t, models.PaymentStatusApproved, e.Status)
		}
	}
	assert.True(t, notified)
	uow.AssertExpectations(t)
}

func TestPaymentService_ReviewRequest_RejectWithdrawalRefunds(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	request := &models.PaymentRequest{
		ID:      13,
		UserID:  7,
		Type:    models.PaymentRequestWithdraw,
		Amounts: map[string]int64{"CUP": 20000},
		Status:  models.PaymentStatusPending,
	}
	account := &models.Account{UserID: 7, Balances: map[string]int64{"CUP": 0}}

	// Mock expectations
	uow.PaymentRequestRepo.On("GetByID", ctx, int64(13)).Return(request, nil)
	uow.PaymentRequestRepo.On("Review", ctx, int64(13), models.PaymentStatusRejected, "sin fondos",
		mock.AnythingOfType("time.Time")).Return(nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(account, nil)
	uow.AccountRepo.On("AddBalance", ctx, int64(7), "CUP", int64(20000)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeWithdrawalRefund && h.ChangeAmount == 20000
	})).Return(nil)

	reviewed, err := service.ReviewRequest(ctx, 13, false, "sin fondos")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, reviewed.Status)
	uow.AssertExpectations(t)
}

func TestPaymentService_ReviewRequest_AlreadyReviewed(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	request := &models.PaymentRequest{
		ID:     13,
		UserID: 7,
		Type:   models.PaymentRequestWithdraw,
		Status: models.PaymentStatusApproved,
	}

	uow.PaymentRequestRepo.On("GetByID", ctx, int64(13)).Return(request, nil)

	_, err := service.ReviewRequest(ctx, 13, true, "")

	assert.ErrorIs(t, err, models.ErrStateConflict)
	uow.PaymentRequestRepo.AssertNotCalled(t, "Review",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_Transfer_MovesBalanceBothWays(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	sender := &models.Account{UserID: 7, Balances: map[string]int64{"CUP": 50000}}
	recipient := &models.Account{UserID: 8, Balances: map[string]int64{"CUP": 1000}}

	// Mock expectations
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(sender, nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(8)).Return(recipient, nil)
	uow.AccountRepo.On("DeductBalance", ctx, int64(7), "CUP", int64(20000)).Return(nil)
	uow.AccountRepo.On("AddBalance", ctx, int64(8), "CUP", int64(20000)).Return(nil)
	uow.BalanceHistoryRepo.On("Record", ctx, mock.AnythingOfType("*models.BalanceHistory")).Return(nil)

	err := service.Transfer(ctx, 7, 8, "CUP", 20000)

	require.NoError(t, err)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}

func TestPaymentService_Transfer_ToSelf(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	service := newTestPaymentService(factory, &WithdrawWindow{})

	err := service.Transfer(context.Background(), 7, 7, "CUP", 20000)

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestPaymentService_AddMethod_Creates(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	// Mock expectations
	uow.PaymentMethodRepo.On("Create", ctx, mock.MatchedBy(func(m *models.PaymentMethod) bool {
		return m.Kind == models.PaymentKindDeposit && m.Name == "BPA" && m.Card == "9224-0699" && m.Active
	})).Return(&models.PaymentMethod{ID: 3, Kind: models.PaymentKindDeposit, Name: "BPA", Active: true}, nil)

	method, err := service.AddMethod(ctx, models.PaymentKindDeposit, "BPA", "9224-0699", "52812345")

	require.NoError(t, err)
	assert.Equal(t, int64(3), method.ID)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}

func TestPaymentService_AddMethod_RejectsBadInput(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	service := newTestPaymentService(factory, &WithdrawWindow{})

	_, err := service.AddMethod(context.Background(), "loan", "BPA", "9224", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = service.AddMethod(context.Background(), models.PaymentKindDeposit, "", "9224", "")
	assert.ErrorIs(t, err, models.ErrValidation)

	factory.UOW.PaymentMethodRepo.AssertNotCalled(t, "Create")
}

func TestPaymentService_SetMethodActive(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := newTestPaymentService(factory, &WithdrawWindow{})

	// Mock expectations
	uow.PaymentMethodRepo.On("SetActive", ctx, int64(3), false).Return(nil)

	err := service.SetMethodActive(ctx, 3, false)

	require.NoError(t, err)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}
