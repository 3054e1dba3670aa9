package service

import (
	"context"
	"fmt"

	"bolita/events"
	"bolita/models"

	log "github.com/sirupsen/logrus"
)

type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateAccount fetches an account, creating it on first contact
func (s *userService) GetOrCreateAccount(ctx context.Context, userID int64, firstName string, referrer *int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	// Self-referrals are dropped silently
	if referrer != nil && *referrer == userID {
		referrer = nil
	}
	if referrer != nil {
		ref, err := uow.AccountRepository().GetByUserID(ctx, *referrer)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			referrer = nil
		}
	}

	account, err = uow.AccountRepository().Create(ctx, userID, firstName, referrer)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		UserID:    userID,
		FirstName: firstName,
		Referrer:  referrer,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   userID,
		"referred": referrer != nil,
	}).Info("Created new account")

	return account, nil
}

// GetAccount fetches an account, models.ErrNotFound if absent
func (s *userService) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", models.ErrNotFound, userID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GetBalanceHistory returns a user's recent balance changes
func (s *userService) GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return entries, nil
}
