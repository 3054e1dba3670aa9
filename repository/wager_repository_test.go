package repository

import (
	"context"
	"testing"
	"time"

	"bolita/models"
	"bolita/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWagerRepository_SettleExactlyOnce(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	sessions := NewSessionRepository(testDB.DB)
	repo := NewWagerRepository(testDB.DB)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 123456, "Maria", nil)
	require.NoError(t, err)
	session, err := sessions.Create(ctx, testutil.CreateTestSession("florida", "manana", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	wager, err := repo.Create(ctx, testutil.CreateTestWager(123456, session.ID, models.BetTypeStraight, "17", "CUP", 100))
	require.NoError(t, err)
	require.NotZero(t, wager.ID)

	t.Run("roundtrips the stake items", func(t *testing.T) {
		loaded, err := repo.GetByID(ctx, wager.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, models.StakeItem{Pattern: "17", Currency: "CUP", Amount: 100}, loaded.Items[0])
		assert.False(t, loaded.IsSettled())
	})

	t.Run("listed as unsettled", func(t *testing.T) {
		unsettled, err := repo.GetBySession(ctx, session.ID, true)
		require.NoError(t, err)
		require.Len(t, unsettled, 1)
		assert.Equal(t, wager.ID, unsettled[0].ID)
	})

	t.Run("settle marks the outcome once", func(t *testing.T) {
		prize := map[string]int64{"CUP": 7500}
		require.NoError(t, repo.MarkSettled(ctx, wager.ID, time.Now(), true, prize))

		// A second pass must not double-pay
		err := repo.MarkSettled(ctx, wager.ID, time.Now(), true, prize)
		assert.ErrorIs(t, err, models.ErrStateConflict)

		loaded, err := repo.GetByID(ctx, wager.ID)
		require.NoError(t, err)
		assert.True(t, loaded.IsSettled())
		require.NotNil(t, loaded.Won)
		assert.True(t, *loaded.Won)
		assert.Equal(t, prize, loaded.Prize)

		unsettled, err := repo.GetBySession(ctx, session.ID, true)
		require.NoError(t, err)
		assert.Empty(t, unsettled)

		all, err := repo.GetBySession(ctx, session.ID, false)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestWagerRepository_Delete(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	sessions := NewSessionRepository(testDB.DB)
	repo := NewWagerRepository(testDB.DB)
	ctx := context.Background()

	_, err := accounts.Create(ctx, 123456, "Maria", nil)
	require.NoError(t, err)
	session, err := sessions.Create(ctx, testutil.CreateTestSession("florida", "tarde", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	wager, err := repo.Create(ctx, testutil.CreateTestWager(123456, session.ID, models.BetTypeCombo, "17x32", "USD", 500))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, wager.ID))

	loaded, err := repo.GetByID(ctx, wager.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestWinningNumberRepository_OnePerSession(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	sessions := NewSessionRepository(testDB.DB)
	repo := NewWinningNumberRepository(testDB.DB)
	ctx := context.Background()

	session, err := sessions.Create(ctx, testutil.CreateTestSession("florida", "noche", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	wn, err := repo.Create(ctx, &models.WinningNumber{
		SessionID: session.ID,
		Region:    session.Region,
		Date:      session.Date,
		Slot:      session.Slot,
		Digits:    "5173262",
	})
	require.NoError(t, err)
	require.NotZero(t, wn.ID)

	t.Run("second publish is rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, &models.WinningNumber{
			SessionID: session.ID,
			Region:    session.Region,
			Date:      session.Date,
			Slot:      session.Slot,
			Digits:    "9999999",
		})
		assert.ErrorIs(t, err, models.ErrStateConflict)
	})

	t.Run("lookup and recency", func(t *testing.T) {
		loaded, err := repo.GetBySessionID(ctx, session.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "5173262", loaded.Digits)

		recent, err := repo.GetRecent(ctx, 5)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, wn.ID, recent[0].ID)
	})
}

func TestBetTypeConfigRepository_SeededDefaults(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBetTypeConfigRepository(testDB.DB)
	ctx := context.Background()

	config, err := repo.Get(ctx, models.BetTypeStraight)
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, int64(75), config.Multiplier)
	assert.NotEmpty(t, config.DefaultStake)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	t.Run("multiplier can be retuned", func(t *testing.T) {
		config.Multiplier = 80
		require.NoError(t, repo.Update(ctx, config))

		updated, err := repo.Get(ctx, models.BetTypeStraight)
		require.NoError(t, err)
		assert.Equal(t, int64(80), updated.Multiplier)
	})
}

func TestExchangeRateRepository_SetAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewExchangeRateRepository(testDB.DB)
	ctx := context.Background()

	// CUP is seeded by the migration
	seeded, err := repo.Get(ctx, "CUP")
	require.NoError(t, err)
	require.NotNil(t, seeded)
	assert.Equal(t, float64(110), seeded.Rate)

	require.NoError(t, repo.Set(ctx, "CUP", 120))
	require.NoError(t, repo.Set(ctx, "MLC", 1.05))

	updated, err := repo.Get(ctx, "CUP")
	require.NoError(t, err)
	assert.Equal(t, float64(120), updated.Rate)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
