package repository

import (
	"context"
	"testing"

	"bolita/models"
	"bolita/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("account not found", func(t *testing.T) {
		account, err := repo.GetByUserID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("new account starts empty", func(t *testing.T) {
		created, err := repo.Create(ctx, 123456, "Maria", nil)
		require.NoError(t, err)
		require.NotNil(t, created)

		account, err := repo.GetByUserID(ctx, 123456)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "Maria", account.FirstName)
		assert.Nil(t, account.Referrer)
		assert.Zero(t, account.Bonus)
		assert.Empty(t, account.Balances)
	})

	t.Run("referrer is persisted", func(t *testing.T) {
		referrer := int64(123456)
		created, err := repo.Create(ctx, 123457, "Jose", &referrer)
		require.NoError(t, err)
		require.NotNil(t, created.Referrer)
		assert.Equal(t, referrer, *created.Referrer)
	})
}

func TestAccountRepository_Balances(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 123456, "Maria", nil)
	require.NoError(t, err)

	t.Run("add creates the currency row", func(t *testing.T) {
		require.NoError(t, repo.AddBalance(ctx, 123456, "CUP", 50000))
		require.NoError(t, repo.AddBalance(ctx, 123456, "USD", 1000))
		require.NoError(t, repo.AddBalance(ctx, 123456, "CUP", 10000))

		account, err := repo.GetByUserID(ctx, 123456)
		require.NoError(t, err)
		assert.Equal(t, int64(60000), account.BalanceFor("CUP"))
		assert.Equal(t, int64(1000), account.BalanceFor("USD"))
	})

	t.Run("deduct refuses to overdraw", func(t *testing.T) {
		require.NoError(t, repo.DeductBalance(ctx, 123456, "USD", 400))

		err := repo.DeductBalance(ctx, 123456, "USD", 601)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		// The failed deduction must not have touched the balance
		account, err := repo.GetByUserID(ctx, 123456)
		require.NoError(t, err)
		assert.Equal(t, int64(600), account.BalanceFor("USD"))
	})

	t.Run("deduct from a currency never held", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 123456, "EUR", 1)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	})
}

func TestAccountRepository_Bonus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 123456, "Maria", nil)
	require.NoError(t, err)

	require.NoError(t, repo.AddBonus(ctx, 123456, 300))

	account, err := repo.GetByUserID(ctx, 123456)
	require.NoError(t, err)
	assert.Equal(t, int64(300), account.Bonus)

	require.NoError(t, repo.DeductBonus(ctx, 123456, 200))

	err = repo.DeductBonus(ctx, 123456, 101)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	account, err = repo.GetByUserID(ctx, 123456)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Bonus)
}
