package service

import (
	"context"
	"testing"

	"bolita/events"
	"bolita/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetOrCreateAccount_Existing(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewUserService(factory)

	existing := &models.Account{UserID: 7, FirstName: "Maria"}

	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(existing, nil)

	account, err := service.GetOrCreateAccount(ctx, 7, "Maria", nil)

	require.NoError(t, err)
	assert.Equal(t, existing, account)
	uow.AccountRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_GetOrCreateAccount_NewWithReferrer(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewUserService(factory)

	referrerID := int64(9)
	created := &models.Account{UserID: 7, FirstName: "Maria", Referrer: &referrerID}

	// Mock expectations
	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(nil, nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(9)).Return(&models.Account{UserID: 9}, nil)
	uow.AccountRepo.On("Create", ctx, int64(7), "Maria", &referrerID).Return(created, nil)

	account, err := service.GetOrCreateAccount(ctx, 7, "Maria", &referrerID)

	require.NoError(t, err)
	assert.Equal(t, created, account)
	assert.True(t, uow.Committed())

	var announced bool
	for _, event := range uow.PublishedEvents() {
		if e, ok := event.(events.AccountCreatedEvent); ok {
			announced = true
			require.NotNil(t, e.Referrer)
			assert.Equal(t, int64(9), *e.Referrer)
		}
	}
	assert.True(t, announced)
	uow.AssertExpectations(t)
}

func TestUserService_GetOrCreateAccount_SelfReferralDropped(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewUserService(factory)

	self := int64(7)
	created := &models.Account{UserID: 7, FirstName: "Maria"}

	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(nil, nil)
	uow.AccountRepo.On("Create", ctx, int64(7), "Maria", (*int64)(nil)).Return(created, nil)

	account, err := service.GetOrCreateAccount(ctx, 7, "Maria", &self)

	require.NoError(t, err)
	assert.Nil(t, account.Referrer)
	uow.AssertExpectations(t)
}

func TestUserService_GetOrCreateAccount_UnknownReferrerDropped(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewUserService(factory)

	referrerID := int64(999)
	created := &models.Account{UserID: 7, FirstName: "Maria"}

	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(nil, nil)
	uow.AccountRepo.On("GetByUserID", ctx, int64(999)).Return(nil, nil)
	uow.AccountRepo.On("Create", ctx, int64(7), "Maria", (*int64)(nil)).Return(created, nil)

	_, err := service.GetOrCreateAccount(ctx, 7, "Maria", &referrerID)

	require.NoError(t, err)
	uow.AssertExpectations(t)
}

func TestUserService_GetAccount_NotFound(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewUserService(factory)

	uow.AccountRepo.On("GetByUserID", ctx, int64(7)).Return(nil, nil)

	_, err := service.GetAccount(ctx, 7)

	assert.ErrorIs(t, err, models.ErrNotFound)
}
