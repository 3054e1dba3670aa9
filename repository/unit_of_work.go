package repository

import (
	"context"
	"fmt"

	"bolita/database"
	"bolita/events"
	"bolita/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	accountRepo        service.AccountRepository
	sessionRepo        service.SessionRepository
	winningNumberRepo  service.WinningNumberRepository
	wagerRepo          service.WagerRepository
	betTypeConfigRepo  service.BetTypeConfigRepository
	exchangeRateRepo   service.ExchangeRateRepository
	balanceHistoryRepo service.BalanceHistoryRepository
	paymentMethodRepo  service.PaymentMethodRepository
	paymentRequestRepo service.PaymentRequestRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.sessionRepo = newSessionRepositoryWithTx(tx)
	u.winningNumberRepo = newWinningNumberRepositoryWithTx(tx)
	u.wagerRepo = newWagerRepositoryWithTx(tx)
	u.betTypeConfigRepo = newBetTypeConfigRepositoryWithTx(tx)
	u.exchangeRateRepo = newExchangeRateRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.paymentMethodRepo = newPaymentMethodRepositoryWithTx(tx)
	u.paymentRequestRepo = newPaymentRequestRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes staged events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards staged events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

func (u *unitOfWork) SessionRepository() service.SessionRepository {
	if u.sessionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sessionRepo
}

func (u *unitOfWork) WinningNumberRepository() service.WinningNumberRepository {
	if u.winningNumberRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.winningNumberRepo
}

func (u *unitOfWork) WagerRepository() service.WagerRepository {
	if u.wagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerRepo
}

func (u *unitOfWork) BetTypeConfigRepository() service.BetTypeConfigRepository {
	if u.betTypeConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betTypeConfigRepo
}

func (u *unitOfWork) ExchangeRateRepository() service.ExchangeRateRepository {
	if u.exchangeRateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.exchangeRateRepo
}

func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

func (u *unitOfWork) PaymentMethodRepository() service.PaymentMethodRepository {
	if u.paymentMethodRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.paymentMethodRepo
}

func (u *unitOfWork) PaymentRequestRepository() service.PaymentRequestRepository {
	if u.paymentRequestRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.paymentRequestRepo
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
