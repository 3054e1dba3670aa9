package testutil

import (
	"time"

	"bolita/models"
)

// CreateTestAccount creates a test account with default values
func CreateTestAccount(userID int64, firstName string) *models.Account {
	now := time.Now()
	return &models.Account{
		UserID:    userID,
		FirstName: firstName,
		Balances:  map[string]int64{"USD": 10000, "CUP": 100000},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestSession creates an open test session for a region and slot
func CreateTestSession(region, slot string, closeAt time.Time) *models.Session {
	date := time.Date(closeAt.Year(), closeAt.Month(), closeAt.Day(), 0, 0, 0, 0, time.UTC)
	return &models.Session{
		Region:  region,
		Date:    date,
		Slot:    slot,
		State:   models.SessionStateOpen,
		CloseAt: closeAt,
	}
}

// CreateTestWager creates an unsettled wager with a single stake item
func CreateTestWager(userID, sessionID int64, betType models.BetType, pattern, currency string, amount int64) *models.Wager {
	return &models.Wager{
		UserID:    userID,
		SessionID: sessionID,
		BetType:   betType,
		RawText:   pattern,
		Items: []models.StakeItem{
			{Pattern: pattern, Currency: currency, Amount: amount},
		},
	}
}

// CreateTestBetTypeConfig creates a bet type config with the given multiplier
func CreateTestBetTypeConfig(betType models.BetType, multiplier int64) *models.BetTypeConfig {
	return &models.BetTypeConfig{
		BetType:      betType,
		Multiplier:   multiplier,
		DefaultStake: map[string]int64{"CUP": 7000, "USD": 20},
		MinStake:     map[string]int64{"CUP": 500, "USD": 5},
		MaxStake:     map[string]int64{"CUP": 1000000, "USD": 10000},
		UpdatedAt:    time.Now(),
	}
}
