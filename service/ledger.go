package service

import (
	"context"
	"fmt"

	"bolita/events"
	"bolita/models"
)

// RecordBalanceChange records a balance history entry and stages the balance
// change event. This is the single entry point for all balance changes.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          history.UserID,
		Currency:        history.Currency,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

// reserveForWager debits the per-currency costs of a wager inside the given
// unit of work, consuming the bonus balance before the real base-currency
// balance. It returns the bonus portion used so cancellation can reverse the
// split exactly. The conditional repository updates guarantee no balance goes
// negative; on any failure the enclosing transaction rolls back whole.
func reserveForWager(ctx context.Context, uow UnitOfWork, account *models.Account, costs map[string]int64, baseCurrency string, relatedID int64) (int64, error) {
	accounts := uow.AccountRepository()
	related := models.RelatedTypeWager

	var bonusUsed int64
	for currency, cost := range costs {
		if cost <= 0 {
			continue
		}

		cashCost := cost
		if currency == baseCurrency && account.Bonus > 0 {
			bonusUsed = min(account.Bonus, cost)
			cashCost = cost - bonusUsed

			if err := accounts.DeductBonus(ctx, account.UserID, bonusUsed); err != nil {
				return 0, err
			}
			if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
				UserID:          account.UserID,
				Currency:        baseCurrency,
				BalanceBefore:   account.Bonus,
				BalanceAfter:    account.Bonus - bonusUsed,
				ChangeAmount:    -bonusUsed,
				TransactionType: models.TransactionTypeBonusStake,
				RelatedID:       &relatedID,
				RelatedType:     &related,
			}); err != nil {
				return 0, err
			}
		}

		if cashCost == 0 {
			continue
		}

		if err := accounts.DeductBalance(ctx, account.UserID, currency, cashCost); err != nil {
			return 0, err
		}
		before := account.BalanceFor(currency)
		if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
			UserID:          account.UserID,
			Currency:        currency,
			BalanceBefore:   before,
			BalanceAfter:    before - cashCost,
			ChangeAmount:    -cashCost,
			TransactionType: models.TransactionTypeWagerStake,
			RelatedID:       &relatedID,
			RelatedType:     &related,
		}); err != nil {
			return 0, err
		}
	}

	return bonusUsed, nil
}

// releaseWagerReserve reverses a wager's debit: the bonus portion returns to
// the bonus balance and the cash portions return to their currency balances.
func releaseWagerReserve(ctx context.Context, uow UnitOfWork, wager *models.Wager, baseCurrency string) error {
	accounts := uow.AccountRepository()
	related := models.RelatedTypeWager
	relatedID := wager.ID

	account, err := accounts.GetByUserID(ctx, wager.UserID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, wager.UserID)
	}

	for currency, cost := range wager.CostByCurrency() {
		if cost <= 0 {
			continue
		}

		cashRefund := cost
		if currency == baseCurrency && wager.BonusUsed > 0 {
			cashRefund = cost - wager.BonusUsed

			if err := accounts.AddBonus(ctx, wager.UserID, wager.BonusUsed); err != nil {
				return err
			}
			if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
				UserID:          wager.UserID,
				Currency:        baseCurrency,
				BalanceBefore:   account.Bonus,
				BalanceAfter:    account.Bonus + wager.BonusUsed,
				ChangeAmount:    wager.BonusUsed,
				TransactionType: models.TransactionTypeBonusRefund,
				RelatedID:       &relatedID,
				RelatedType:     &related,
			}); err != nil {
				return err
			}
		}

		if cashRefund == 0 {
			continue
		}

		if err := accounts.AddBalance(ctx, wager.UserID, currency, cashRefund); err != nil {
			return err
		}
		before := account.BalanceFor(currency)
		if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
			UserID:          wager.UserID,
			Currency:        currency,
			BalanceBefore:   before,
			BalanceAfter:    before + cashRefund,
			ChangeAmount:    cashRefund,
			TransactionType: models.TransactionTypeWagerRefund,
			RelatedID:       &relatedID,
			RelatedType:     &related,
		}); err != nil {
			return err
		}
	}

	return nil
}

// creditPrize pays a settled wager's prize into the winner's real balances.
func creditPrize(ctx context.Context, uow UnitOfWork, userID int64, prize map[string]int64, wagerID int64) error {
	accounts := uow.AccountRepository()
	related := models.RelatedTypeWager

	account, err := accounts.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, userID)
	}

	for currency, amount := range prize {
		if amount <= 0 {
			continue
		}

		if err := accounts.AddBalance(ctx, userID, currency, amount); err != nil {
			return err
		}
		before := account.BalanceFor(currency)
		if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
			UserID:          userID,
			Currency:        currency,
			BalanceBefore:   before,
			BalanceAfter:    before + amount,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypePrize,
			RelatedID:       &wagerID,
			RelatedType:     &related,
		}); err != nil {
			return err
		}
	}

	return nil
}
