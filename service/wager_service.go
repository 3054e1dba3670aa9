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

type wagerService struct {
	uowFactory   UnitOfWorkFactory
	rates        RateService
	baseCurrency string
	referralBps  int64
}

// NewWagerService creates a new wager service
func NewWagerService(uowFactory UnitOfWorkFactory, rates RateService, baseCurrency string, referralBps int64) WagerService {
	return &wagerService{
		uowFactory:   uowFactory,
		rates:        rates,
		baseCurrency: baseCurrency,
		referralBps:  referralBps,
	}
}

// PlaceWager parses the wager text, reserves its cost and records the wager
// atomically. The session's open state is re-checked inside the transaction
// because it may have closed between menu render and submission.
func (s *wagerService) PlaceWager(ctx context.Context, userID, sessionID int64, betType models.BetType, text, defaultCurrency string) (*models.PlaceWagerResult, error) {
	if !betType.Valid() {
		return nil, fmt.Errorf("%w: unknown bet type %q", models.ErrValidation, betType)
	}

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
	if !session.IsAcceptingWagers() || session.IsExpired(time.Now()) {
		return nil, fmt.Errorf("%w: session %d is no longer accepting wagers", models.ErrStateConflict, sessionID)
	}

	config, err := uow.BetTypeConfigRepository().Get(ctx, betType)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, fmt.Errorf("%w: bet type %s is not configured", models.ErrNotFound, betType)
	}

	parsed, err := ParseWagerText(text, betType, defaultCurrency, config)
	if err != nil {
		return nil, err
	}

	for _, item := range parsed.Items {
		if err := s.checkStakeBounds(ctx, config, item); err != nil {
			return nil, err
		}
	}

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", models.ErrNotFound, userID)
	}

	wager := &models.Wager{
		UserID:    userID,
		SessionID: sessionID,
		BetType:   betType,
		RawText:   text,
		Items:     parsed.Items,
	}
	costs := wager.CostByCurrency()

	if !account.CanCover(costs, s.baseCurrency) {
		return nil, fmt.Errorf("%w: account %d cannot cover wager", models.ErrInsufficientFunds, userID)
	}

	// The bonus split is decided from the account snapshot so the wager row
	// can carry it from the start.
	if baseCost := costs[s.baseCurrency]; baseCost > 0 {
		wager.BonusUsed = min(account.Bonus, baseCost)
	}

	wager, err = uow.WagerRepository().Create(ctx, wager)
	if err != nil {
		return nil, err
	}

	if _, err := reserveForWager(ctx, uow, account, costs, s.baseCurrency, wager.ID); err != nil {
		return nil, err
	}

	if err := s.payReferralCommission(ctx, uow, account, costs, wager.ID); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		UserID:    userID,
		WagerID:   wager.ID,
		SessionID: sessionID,
		BetType:   betType,
		Cost:      costs,
		BonusUsed: wager.BonusUsed,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"wagerID":   wager.ID,
		"sessionID": sessionID,
		"betType":   betType,
		"items":     len(wager.Items),
		"rejected":  len(parsed.Rejected),
	}).Info("Wager placed")

	result, err := s.refreshResult(ctx, wager, parsed.Rejected)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkStakeBounds validates one stake item against the configured minimum
// and maximum. Bounds missing for the item's currency are converted from the
// base-currency bounds; with no rate available the check is skipped.
func (s *wagerService) checkStakeBounds(ctx context.Context, config *models.BetTypeConfig, item models.StakeItem) error {
	lookup := func(bounds map[string]int64) (int64, bool) {
		if bound, ok := bounds[item.Currency]; ok {
			return bound, true
		}
		base, ok := bounds[s.baseCurrency]
		if !ok {
			return 0, false
		}
		converted, err := s.rates.FromBase(ctx, item.Currency, base)
		if err != nil {
			log.WithError(err).WithField("currency", item.Currency).Warn("No exchange rate for stake bound check")
			return 0, false
		}
		return converted, true
	}

	if minBound, ok := lookup(config.MinStake); ok && item.Amount < minBound {
		return fmt.Errorf("%w: stake %d %s on %s is below the minimum %d",
			models.ErrValidation, item.Amount, item.Currency, item.Pattern, minBound)
	}
	if maxBound, ok := lookup(config.MaxStake); ok && item.Amount > maxBound {
		return fmt.Errorf("%w: stake %d %s on %s is above the maximum %d",
			models.ErrValidation, item.Amount, item.Currency, item.Pattern, maxBound)
	}
	return nil
}

// payReferralCommission credits the referrer a fixed share of the wager's
// base-currency cost. Stakes in other currencies earn no commission.
func (s *wagerService) payReferralCommission(ctx context.Context, uow UnitOfWork, account *models.Account, costs map[string]int64, wagerID int64) error {
	if account.Referrer == nil || s.referralBps <= 0 {
		return nil
	}

	commission := costs[s.baseCurrency] * s.referralBps / 10000
	if commission <= 0 {
		return nil
	}

	referrer, err := uow.AccountRepository().GetByUserID(ctx, *account.Referrer)
	if err != nil {
		return err
	}
	if referrer == nil {
		return nil
	}

	if err := uow.AccountRepository().AddBalance(ctx, referrer.UserID, s.baseCurrency, commission); err != nil {
		return err
	}

	related := models.RelatedTypeWager
	before := referrer.BalanceFor(s.baseCurrency)
	return RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:          referrer.UserID,
		Currency:        s.baseCurrency,
		BalanceBefore:   before,
		BalanceAfter:    before + commission,
		ChangeAmount:    commission,
		TransactionType: models.TransactionTypeCommission,
		Metadata:        map[string]any{"referred_user": account.UserID},
		RelatedID:       &wagerID,
		RelatedType:     &related,
	})
}

// refreshResult reloads the account after commit so the caller can show the
// post-wager balances.
func (s *wagerService) refreshResult(ctx context.Context, wager *models.Wager, rejected []string) (*models.PlaceWagerResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, wager.UserID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.PlaceWagerResult{
		Wager:    wager,
		Account:  account,
		Rejected: rejected,
	}, nil
}

// CancelWager reverses an unsettled wager while its session is still open.
// The refund restores the exact bonus and cash split of the original debit.
func (s *wagerService) CancelWager(ctx context.Context, userID, wagerID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return err
	}
	if wager == nil || wager.UserID != userID {
		return fmt.Errorf("%w: wager %d", models.ErrNotFound, wagerID)
	}
	if wager.IsSettled() {
		return fmt.Errorf("%w: wager %d is already settled", models.ErrStateConflict, wagerID)
	}

	session, err := uow.SessionRepository().GetByID(ctx, wager.SessionID)
	if err != nil {
		return err
	}
	if session == nil || !session.IsAcceptingWagers() {
		return fmt.Errorf("%w: session %d is closed, wager %d can no longer be cancelled",
			models.ErrStateConflict, wager.SessionID, wagerID)
	}

	if err := releaseWagerReserve(ctx, uow, wager, s.baseCurrency); err != nil {
		return err
	}

	if err := uow.WagerRepository().Delete(ctx, wagerID); err != nil {
		return err
	}

	uow.EventBus().Publish(events.WagerCancelledEvent{
		UserID:    userID,
		WagerID:   wagerID,
		SessionID: wager.SessionID,
		Refund:    wager.CostByCurrency(),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"wagerID": wagerID,
	}).Info("Wager cancelled")

	return nil
}

// GetUserWagers returns a user's recent wagers, newest first
func (s *wagerService) GetUserWagers(ctx context.Context, userID int64, limit int) ([]*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return wagers, nil
}

// GetBetTypeConfigs lists every bet type's multiplier and stake bounds
func (s *wagerService) GetBetTypeConfigs(ctx context.Context) ([]*models.BetTypeConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	configs, err := uow.BetTypeConfigRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return configs, nil
}

// UpdateBetTypeConfig overwrites a bet type's multiplier and stake bounds.
// Settled wagers are never re-processed, so the change is not retroactive.
func (s *wagerService) UpdateBetTypeConfig(ctx context.Context, config *models.BetTypeConfig) error {
	if !config.BetType.Valid() {
		return fmt.Errorf("%w: unknown bet type %q", models.ErrValidation, config.BetType)
	}
	if config.Multiplier <= 0 {
		return fmt.Errorf("%w: multiplier must be positive", models.ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.BetTypeConfigRepository().Update(ctx, config); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betType":    config.BetType,
		"multiplier": config.Multiplier,
	}).Info("Bet type configuration updated")

	return nil
}

// IsRetryable reports whether an error is transient rather than one of the
// domain failures.
func IsRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, models.ErrValidation) &&
		!errors.Is(err, models.ErrInsufficientFunds) &&
		!errors.Is(err, models.ErrStateConflict) &&
		!errors.Is(err, models.ErrNotFound)
}
