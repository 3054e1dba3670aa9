package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bolita/events"
	"bolita/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// PublishWinner records the winning number for a closed session and settles
// every wager in it. The number is committed in its own transaction before
// any wager settles, so a crash mid-settlement loses nothing: ResettleSession
// picks up the remaining wagers. Each wager then settles in its own
// transaction so one failure cannot block the rest.
func (s *settlementService) PublishWinner(ctx context.Context, sessionID int64, digits string) (*models.SettlementResult, error) {
	if err := models.ValidateDigits(digits); err != nil {
		return nil, err
	}
	decomposition, err := models.Decompose(digits)
	if err != nil {
		return nil, err
	}

	multipliers, err := s.publishNumber(ctx, sessionID, digits)
	if err != nil {
		return nil, err
	}

	return s.settlePass(ctx, sessionID, digits, decomposition, multipliers)
}

// publishNumber inserts the winning number and snapshots the multipliers in
// force at publish time. Later config changes must not affect this session.
func (s *settlementService) publishNumber(ctx context.Context, sessionID int64, digits string) (map[models.BetType]int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, sessionID)
	}
	if session.IsAcceptingWagers() {
		return nil, fmt.Errorf("%w: session %d is still open, close it before publishing", models.ErrStateConflict, sessionID)
	}

	multipliers, err := s.loadMultipliers(ctx, uow)
	if err != nil {
		return nil, err
	}

	wn, err := uow.WinningNumberRepository().Create(ctx, &models.WinningNumber{
		SessionID: sessionID,
		Region:    session.Region,
		Date:      session.Date,
		Slot:      session.Slot,
		Digits:    digits,
	})
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.WinnerPublishedEvent{
		SessionID: sessionID,
		Region:    wn.Region,
		Date:      wn.Date.Format("2006-01-02"),
		Slot:      wn.Slot,
		Digits:    wn.Digits,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID": sessionID,
		"digits":    digits,
	}).Info("Winning number published")

	return multipliers, nil
}

func (s *settlementService) loadMultipliers(ctx context.Context, uow UnitOfWork) (map[models.BetType]int64, error) {
	configs, err := uow.BetTypeConfigRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	multipliers := make(map[models.BetType]int64, len(configs))
	for _, config := range configs {
		multipliers[config.BetType] = config.Multiplier
	}
	return multipliers, nil
}

// ResettleSession retries wagers a previous settlement pass failed on. It is
// a no-op for wagers already settled (the settle marker guards them).
func (s *settlementService) ResettleSession(ctx context.Context, sessionID int64) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wn, err := uow.WinningNumberRepository().GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if wn == nil {
		return nil, fmt.Errorf("%w: no winning number for session %d", models.ErrNotFound, sessionID)
	}

	multipliers, err := s.loadMultipliers(ctx, uow)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	decomposition, err := wn.Decompose()
	if err != nil {
		return nil, err
	}

	return s.settlePass(ctx, sessionID, wn.Digits, decomposition, multipliers)
}

// settlePass settles every unsettled wager of a session, one transaction per
// wager.
func (s *settlementService) settlePass(ctx context.Context, sessionID int64, digits string, decomposition models.Decomposition, multipliers map[models.BetType]int64) (*models.SettlementResult, error) {
	wagers, err := s.loadUnsettled(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &models.SettlementResult{
		SessionID: sessionID,
		Digits:    digits,
	}

	for _, wager := range wagers {
		prize := computePrize(wager, decomposition, multipliers)
		if err := s.settleWager(ctx, wager, prize); err != nil {
			if errors.Is(err, models.ErrStateConflict) {
				// Settled concurrently, nothing to do
				continue
			}
			log.WithError(err).WithFields(log.Fields{
				"wagerID":   wager.ID,
				"sessionID": sessionID,
			}).Error("Failed to settle wager")
			result.Failed++
			continue
		}

		result.Settled++
		if len(prize) > 0 {
			result.Winners = append(result.Winners, models.SettlementWinner{
				UserID:  wager.UserID,
				WagerID: wager.ID,
				Prize:   prize,
			})
		} else {
			result.NoWinUserIDs = append(result.NoWinUserIDs, wager.UserID)
		}
	}

	log.WithFields(log.Fields{
		"sessionID": sessionID,
		"settled":   result.Settled,
		"winners":   len(result.Winners),
		"failed":    result.Failed,
	}).Info("Settlement pass finished")

	return result, nil
}

// loadUnsettled reads a session's unsettled wagers in their own transaction
func (s *settlementService) loadUnsettled(ctx context.Context, sessionID int64) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetBySession(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wagers, nil
}

// settleWager marks one wager settled and credits its prize atomically
func (s *settlementService) settleWager(ctx context.Context, wager *models.Wager, prize map[string]int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	won := len(prize) > 0
	if err := uow.WagerRepository().MarkSettled(ctx, wager.ID, s.now(), won, prize); err != nil {
		return err
	}

	if won {
		if err := creditPrize(ctx, uow, wager.UserID, prize, wager.ID); err != nil {
			return err
		}
		uow.EventBus().Publish(events.PrizePaidEvent{
			UserID:    wager.UserID,
			WagerID:   wager.ID,
			SessionID: wager.SessionID,
			Prize:     prize,
		})
	} else {
		uow.EventBus().Publish(events.NoWinEvent{
			UserID:    wager.UserID,
			WagerID:   wager.ID,
			SessionID: wager.SessionID,
		})
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// computePrize sums the payout of a wager's matching items per currency.
// Decade and terminal items already store ten times the per-number amount,
// so the multiplier applies to the stored amount as-is.
func computePrize(wager *models.Wager, decomposition models.Decomposition, multipliers map[models.BetType]int64) map[string]int64 {
	multiplier := multipliers[wager.BetType]
	if multiplier <= 0 {
		return nil
	}

	var prize map[string]int64
	for _, item := range wager.Items {
		if !decomposition.Matches(wager.BetType, item.Pattern) {
			continue
		}
		if prize == nil {
			prize = make(map[string]int64)
		}
		prize[item.Currency] += item.Amount * multiplier
	}
	return prize
}

// GetRecentNumbers lists the latest published winning numbers
func (s *settlementService) GetRecentNumbers(ctx context.Context, limit int) ([]*models.WinningNumber, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	numbers, err := uow.WinningNumberRepository().GetRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return numbers, nil
}
