package service

import (
	"context"
	"testing"

	"bolita/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateService_GetRate_BaseIsAlwaysOne(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	service := NewRateService(factory, nil, "USD")

	rate, err := service.GetRate(context.Background(), "USD")

	require.NoError(t, err)
	assert.Equal(t, float64(1), rate)
	factory.UOW.ExchangeRateRepo.AssertNotCalled(t, "Get")
}

func TestRateService_GetRate_ReadsStorage(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewRateService(factory, nil, "USD")

	uow.ExchangeRateRepo.On("Get", ctx, "CUP").Return(&models.ExchangeRate{Currency: "CUP", Rate: 110}, nil)

	rate, err := service.GetRate(ctx, "CUP")

	require.NoError(t, err)
	assert.Equal(t, float64(110), rate)
	uow.AssertExpectations(t)
}

func TestRateService_GetRate_Unknown(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	service := NewRateService(factory, nil, "USD")

	factory.UOW.ExchangeRateRepo.On("Get", ctx, "EUR").Return(nil, nil)

	_, err := service.GetRate(ctx, "EUR")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRateService_Conversions(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	service := NewRateService(factory, nil, "USD")

	factory.UOW.ExchangeRateRepo.On("Get", ctx, "CUP").Return(&models.ExchangeRate{Currency: "CUP", Rate: 110}, nil)

	// 11000 CUP centavos at 110 CUP per USD is exactly 100 cents
	base, err := service.ToBase(ctx, "CUP", 11000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), base)

	// Rounding goes to the nearest minor unit
	base, err = service.ToBase(ctx, "CUP", 7000)
	require.NoError(t, err)
	assert.Equal(t, int64(64), base)

	local, err := service.FromBase(ctx, "CUP", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(11000), local)
}

func TestRateService_SetRate_BaseRejected(t *testing.T) {
	factory := NewMockUnitOfWorkFactory()
	service := NewRateService(factory, nil, "USD")

	err := service.SetRate(context.Background(), "USD", 2)

	assert.ErrorIs(t, err, models.ErrValidation)
	factory.UOW.ExchangeRateRepo.AssertNotCalled(t, "Set")
}

func TestRateService_SetRate_PersistsRate(t *testing.T) {
	ctx := context.Background()

	factory := NewMockUnitOfWorkFactory()
	uow := factory.UOW
	service := NewRateService(factory, nil, "USD")

	uow.ExchangeRateRepo.On("Set", ctx, "MLC", float64(245)).Return(nil)

	err := service.SetRate(ctx, "MLC", 245)

	require.NoError(t, err)
	assert.True(t, uow.Committed())
	uow.AssertExpectations(t)
}
