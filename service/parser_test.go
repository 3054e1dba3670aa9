package service

import (
	"testing"

	"bolita/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightConfig() *models.BetTypeConfig {
	return &models.BetTypeConfig{
		BetType:      models.BetTypeStraight,
		Multiplier:   75,
		DefaultStake: map[string]int64{"CUP": 7000, "USD": 2000},
		MinStake:     map[string]int64{"CUP": 500, "USD": 500},
		MaxStake:     map[string]int64{"CUP": 10000000, "USD": 10000000},
	}
}

func TestParseWagerText_SingleNumber(t *testing.T) {
	result, err := ParseWagerText("12 con 1 usd", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, models.StakeItem{Pattern: "12", Currency: "USD", Amount: 100}, result.Items[0])
	assert.Empty(t, result.Rejected)
}

func TestParseWagerText_MultipleNumbersShareAmount(t *testing.T) {
	result, err := ParseWagerText("09 10 con 50 cup", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, models.StakeItem{Pattern: "09", Currency: "CUP", Amount: 5000}, result.Items[0])
	assert.Equal(t, models.StakeItem{Pattern: "10", Currency: "CUP", Amount: 5000}, result.Items[1])
}

func TestParseWagerText_MultipleSegments(t *testing.T) {
	result, err := ParseWagerText("12 con 1 usd\n09 10 con 50 cup", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "USD", result.Items[0].Currency)
	assert.Equal(t, "CUP", result.Items[1].Currency)
	assert.Equal(t, "CUP", result.Items[2].Currency)
}

func TestParseWagerText_StarSeparator(t *testing.T) {
	result, err := ParseWagerText("25 * 10", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, models.StakeItem{Pattern: "25", Currency: "CUP", Amount: 1000}, result.Items[0])
}

func TestParseWagerText_DefaultCurrencyApplies(t *testing.T) {
	result, err := ParseWagerText("12 con 5", models.BetTypeStraight, "usd", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "USD", result.Items[0].Currency)
	assert.Equal(t, int64(500), result.Items[0].Amount)
}

func TestParseWagerText_NoAmountUsesDefaultStake(t *testing.T) {
	result, err := ParseWagerText("12 34", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(7000), result.Items[0].Amount)
	assert.Equal(t, int64(7000), result.Items[1].Amount)
}

func TestParseWagerText_NoAmountWithoutDefaultStake(t *testing.T) {
	config := straightConfig()
	config.DefaultStake = nil

	_, err := ParseWagerText("12 34", models.BetTypeStraight, "CUP", config)

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseWagerText_DecadeShorthandTimesTen(t *testing.T) {
	result, err := ParseWagerText("D2 con 5 usd", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	// One decade token covers ten numbers, so the stored amount is 10x
	assert.Equal(t, models.StakeItem{Pattern: "D2", Currency: "USD", Amount: 5000}, result.Items[0])
}

func TestParseWagerText_TerminalShorthandNormalized(t *testing.T) {
	result, err := ParseWagerText("t3 con 10", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "T3", result.Items[0].Pattern)
	assert.Equal(t, int64(10000), result.Items[0].Amount)
}

func TestParseWagerText_ShorthandOnlyForStraight(t *testing.T) {
	_, err := ParseWagerText("D2 con 5", models.BetTypeRunner, "CUP", straightConfig())

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseWagerText_DecimalAmounts(t *testing.T) {
	result, err := ParseWagerText("12 con 5.50 usd\n34 con 2,5 usd", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(550), result.Items[0].Amount)
	assert.Equal(t, int64(250), result.Items[1].Amount)
}

func TestParseWagerText_DecimalCommaInsideCommaList(t *testing.T) {
	result, err := ParseWagerText("12 con 5, 34 con 2,5 usd", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, models.StakeItem{Pattern: "12", Currency: "CUP", Amount: 500}, result.Items[0])
	assert.Equal(t, models.StakeItem{Pattern: "34", Currency: "USD", Amount: 250}, result.Items[1])
	assert.Empty(t, result.Rejected)
}

func TestParseWagerText_InvalidTokenDroppedAlone(t *testing.T) {
	result, err := ParseWagerText("12 5 con 1 usd", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, models.StakeItem{Pattern: "12", Currency: "USD", Amount: 100}, result.Items[0])
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "5 (invalid number)", result.Rejected[0])
}

func TestParseWagerText_HundredBetType(t *testing.T) {
	config := straightConfig()
	config.BetType = models.BetTypeHundred

	result, err := ParseWagerText("517 con 10", models.BetTypeHundred, "CUP", config)
	require.NoError(t, err)
	assert.Equal(t, "517", result.Items[0].Pattern)

	_, err = ParseWagerText("51 con 10", models.BetTypeHundred, "CUP", config)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseWagerText_ComboCanonicalForm(t *testing.T) {
	config := straightConfig()
	config.BetType = models.BetTypeCombo

	result, err := ParseWagerText("34X12 con 10", models.BetTypeCombo, "CUP", config)

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "34x12", result.Items[0].Pattern)
}

func TestParseWagerText_ComboSamePairRejected(t *testing.T) {
	config := straightConfig()
	config.BetType = models.BetTypeCombo

	_, err := ParseWagerText("12x12 con 10", models.BetTypeCombo, "CUP", config)

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseWagerText_BadSegmentsCollected(t *testing.T) {
	result, err := ParseWagerText("12 con 5, 123 con 5, abc con 5", models.BetTypeStraight, "CUP", straightConfig())

	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Len(t, result.Rejected, 2)
}

func TestParseWagerText_ZeroAmountRejected(t *testing.T) {
	_, err := ParseWagerText("12 con 0", models.BetTypeStraight, "CUP", straightConfig())

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseWagerText_NothingParsable(t *testing.T) {
	_, err := ParseWagerText("hola que tal", models.BetTypeStraight, "CUP", straightConfig())

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseWagerText_UnknownBetType(t *testing.T) {
	_, err := ParseWagerText("12 con 5", models.BetType("loteria"), "CUP", straightConfig())

	assert.ErrorIs(t, err, models.ErrValidation)
}
