package service

import (
	"context"
	"fmt"
	"time"

	"bolita/events"
	"bolita/models"

	log "github.com/sirupsen/logrus"
)

// PaymentConfig carries the payment policy knobs
type PaymentConfig struct {
	BaseCurrency    string
	WithdrawMinimum int64 // base-currency minor units
	BonusCUP        int64 // deposit bonus in CUP minor units, granted in base currency
}

type paymentService struct {
	uowFactory UnitOfWorkFactory
	rates      RateService
	window     *WithdrawWindow
	cfg        PaymentConfig
	now        func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(uowFactory UnitOfWorkFactory, rates RateService, window *WithdrawWindow, cfg PaymentConfig) PaymentService {
	return &paymentService{
		uowFactory: uowFactory,
		rates:      rates,
		window:     window,
		cfg:        cfg,
		now:        time.Now,
	}
}

func validateAmounts(amounts map[string]int64) error {
	if len(amounts) == 0 {
		return fmt.Errorf("%w: no amounts given", models.ErrValidation)
	}
	for currency, amount := range amounts {
		if amount <= 0 {
			return fmt.Errorf("%w: amount for %s must be positive", models.ErrValidation, currency)
		}
	}
	return nil
}

// RequestDeposit files a deposit claim with its transfer proof. Nothing is
// credited until an admin approves it.
func (s *paymentService) RequestDeposit(ctx context.Context, userID int64, amounts map[string]int64, methodID int64, proofFileID string) (*models.PaymentRequest, error) {
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}
	if proofFileID == "" {
		return nil, fmt.Errorf("%w: deposit requires a transfer proof", models.ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	method, err := uow.PaymentMethodRepository().GetByID(ctx, methodID)
	if err != nil {
		return nil, err
	}
	if method == nil || !method.Active || method.Kind != models.PaymentKindDeposit {
		return nil, fmt.Errorf("%w: payment method %d", models.ErrNotFound, methodID)
	}

	request, err := uow.PaymentRequestRepository().Create(ctx, &models.PaymentRequest{
		UserID:      userID,
		Type:        models.PaymentRequestDeposit,
		Amounts:     amounts,
		MethodID:    &methodID,
		ProofFileID: &proofFileID,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"requestID": request.ID,
	}).Info("Deposit requested")

	return request, nil
}

// RequestWithdrawal debits the amount up front and files the request, so the
// money cannot be spent twice while the admin reviews. Rejection refunds it.
func (s *paymentService) RequestWithdrawal(ctx context.Context, userID int64, amounts map[string]int64, methodID int64, card string) (*models.PaymentRequest, error) {
	if err := validateAmounts(amounts); err != nil {
		return nil, err
	}
	if s.window != nil && !s.window.IsOpen() {
		return nil, fmt.Errorf("%w: withdrawals are closed right now", models.ErrStateConflict)
	}

	baseTotal := int64(0)
	for currency, amount := range amounts {
		inBase, err := s.rates.ToBase(ctx, currency, amount)
		if err != nil {
			return nil, err
		}
		baseTotal += inBase
	}
	if baseTotal < s.cfg.WithdrawMinimum {
		return nil, fmt.Errorf("%w: withdrawal total %d is below the minimum %d %s",
			models.ErrValidation, baseTotal, s.cfg.WithdrawMinimum, s.cfg.BaseCurrency)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	method, err := uow.PaymentMethodRepository().GetByID(ctx, methodID)
	if err != nil {
		return nil, err
	}
	if method == nil || !method.Active || method.Kind != models.PaymentKindWithdraw {
		return nil, fmt.Errorf("%w: payment method %d", models.ErrNotFound, methodID)
	}

	account, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: account %d", models.ErrNotFound, userID)
	}

	request, err := uow.PaymentRequestRepository().Create(ctx, &models.PaymentRequest{
		UserID:   userID,
		Type:     models.PaymentRequestWithdraw,
		Amounts:  amounts,
		MethodID: &methodID,
		Card:     card,
	})
	if err != nil {
		return nil, err
	}

	related := models.RelatedTypePaymentRequest
	for currency, amount := range amounts {
		if err := uow.AccountRepository().DeductBalance(ctx, userID, currency, amount); err != nil {
			return nil, err
		}
		before := account.BalanceFor(currency)
		if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
			UserID:          userID,
			Currency:        currency,
			BalanceBefore:   before,
			BalanceAfter:    before - amount,
			ChangeAmount:    -amount,
			TransactionType: models.TransactionTypeWithdrawal,
			RelatedID:       &request.ID,
			RelatedType:     &related,
		}); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"requestID": request.ID,
	}).Info("Withdrawal requested")

	return request, nil
}

// Transfer moves balance between two accounts immediately
func (s *paymentService) Transfer(ctx context.Context, fromUserID, toUserID int64, currency string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", models.ErrValidation)
	}
	if fromUserID == toUserID {
		return fmt.Errorf("%w: cannot transfer to yourself", models.ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sender, err := uow.AccountRepository().GetByUserID(ctx, fromUserID)
	if err != nil {
		return err
	}
	if sender == nil {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, fromUserID)
	}

	recipient, err := uow.AccountRepository().GetByUserID(ctx, toUserID)
	if err != nil {
		return err
	}
	if recipient == nil {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, toUserID)
	}

	if err := uow.AccountRepository().DeductBalance(ctx, fromUserID, currency, amount); err != nil {
		return err
	}
	if err := uow.AccountRepository().AddBalance(ctx, toUserID, currency, amount); err != nil {
		return err
	}

	senderBefore := sender.BalanceFor(currency)
	if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:          fromUserID,
		Currency:        currency,
		BalanceBefore:   senderBefore,
		BalanceAfter:    senderBefore - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeTransferOut,
		Metadata:        map[string]any{"counterparty": toUserID},
	}); err != nil {
		return err
	}

	recipientBefore := recipient.BalanceFor(currency)
	if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:          toUserID,
		Currency:        currency,
		BalanceBefore:   recipientBefore,
		BalanceAfter:    recipientBefore + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeTransferIn,
		Metadata:        map[string]any{"counterparty": fromUserID},
	}); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"from":     fromUserID,
		"to":       toUserID,
		"currency": currency,
		"amount":   amount,
	}).Info("Transfer completed")

	return nil
}

// ReviewRequest approves or rejects a pending request. Approval of a deposit
// credits the claimed amounts plus the deposit bonus; rejection of a
// withdrawal refunds the up-front debit.
func (s *paymentService) ReviewRequest(ctx context.Context, requestID int64, approve bool, adminMessage string) (*models.PaymentRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := uow.PaymentRequestRepository().GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: payment request %d", models.ErrNotFound, requestID)
	}
	if !request.IsPending() {
		return nil, fmt.Errorf("%w: payment request %d was already reviewed", models.ErrStateConflict, requestID)
	}

	status := models.PaymentStatusRejected
	if approve {
		status = models.PaymentStatusApproved
	}

	reviewedAt := s.now()
	if err := uow.PaymentRequestRepository().Review(ctx, requestID, status, adminMessage, reviewedAt); err != nil {
		return nil, err
	}

	switch {
	case request.Type == models.PaymentRequestDeposit && approve:
		if err := s.creditDeposit(ctx, uow, request); err != nil {
			return nil, err
		}
	case request.Type == models.PaymentRequestWithdraw && !approve:
		if err := s.refundWithdrawal(ctx, uow, request); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.PaymentReviewedEvent{
		RequestID: requestID,
		UserID:    request.UserID,
		Kind:      request.Type,
		Status:    status,
		Amounts:   request.Amounts,
		Message:   adminMessage,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": requestID,
		"status":    status,
	}).Info("Payment request reviewed")

	request.Status = status
	request.ReviewedAt = &reviewedAt
	request.AdminMessage = &adminMessage
	return request, nil
}

func (s *paymentService) creditDeposit(ctx context.Context, uow UnitOfWork, request *models.PaymentRequest) error {
	account, err := uow.AccountRepository().GetByUserID(ctx, request.UserID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, request.UserID)
	}

	related := models.RelatedTypePaymentRequest
	for currency, amount := range request.Amounts {
		if err := uow.AccountRepository().AddBalance(ctx, request.UserID, currency, amount); err != nil {
			return err
		}
		before := account.BalanceFor(currency)
		if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
			UserID:          request.UserID,
			Currency:        currency,
			BalanceBefore:   before,
			BalanceAfter:    before + amount,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypeDeposit,
			RelatedID:       &request.ID,
			RelatedType:     &related,
		}); err != nil {
			return err
		}
	}

	// Deposit bonus is a fixed CUP amount granted into the base-currency
	// bonus balance.
	if s.cfg.BonusCUP <= 0 {
		return nil
	}
	bonus, err := s.rates.ToBase(ctx, "CUP", s.cfg.BonusCUP)
	if err != nil {
		log.WithError(err).Warn("No CUP rate, skipping deposit bonus")
		return nil
	}
	if bonus <= 0 {
		return nil
	}

	if err := uow.AccountRepository().AddBonus(ctx, request.UserID, bonus); err != nil {
		return err
	}
	return RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:          request.UserID,
		Currency:        s.cfg.BaseCurrency,
		BalanceBefore:   account.Bonus,
		BalanceAfter:    account.Bonus + bonus,
		ChangeAmount:    bonus,
		TransactionType: models.TransactionTypeBonusGrant,
		RelatedID:       &request.ID,
		RelatedType:     &related,
	})
}

func (s *paymentService) refundWithdrawal(ctx context.Context, uow UnitOfWork, request *models.PaymentRequest) error {
	account, err := uow.AccountRepository().GetByUserID(ctx, request.UserID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: account %d", models.ErrNotFound, request.UserID)
	}

	related := models.RelatedTypePaymentRequest
	for currency, amount := range request.Amounts {
		if err := uow.AccountRepository().AddBalance(ctx, request.UserID, currency, amount); err != nil {
			return err
		}
		before := account.BalanceFor(currency)
		if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
			UserID:          request.UserID,
			Currency:        currency,
			BalanceBefore:   before,
			BalanceAfter:    before + amount,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypeWithdrawalRefund,
			RelatedID:       &request.ID,
			RelatedType:     &related,
		}); err != nil {
			return err
		}
	}

	return nil
}

// GetPendingRequests lists requests awaiting review
func (s *paymentService) GetPendingRequests(ctx context.Context) ([]*models.PaymentRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	requests, err := uow.PaymentRequestRepository().GetPending(ctx)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return requests, nil
}

// AddMethod registers a new payment method, active immediately
func (s *paymentService) AddMethod(ctx context.Context, kind models.PaymentKind, name, card, confirm string) (*models.PaymentMethod, error) {
	if kind != models.PaymentKindDeposit && kind != models.PaymentKindWithdraw {
		return nil, fmt.Errorf("%w: unknown payment method kind %q", models.ErrValidation, kind)
	}
	if name == "" || card == "" {
		return nil, fmt.Errorf("%w: payment method needs a name and a card", models.ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	method, err := uow.PaymentMethodRepository().Create(ctx, &models.PaymentMethod{
		Kind:    kind,
		Name:    name,
		Card:    card,
		Confirm: confirm,
		Active:  true,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"methodID": method.ID,
		"kind":     kind,
	}).Info("Payment method added")

	return method, nil
}

// SetMethodActive shows or hides a payment method
func (s *paymentService) SetMethodActive(ctx context.Context, methodID int64, active bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.PaymentMethodRepository().SetActive(ctx, methodID, active); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"methodID": methodID,
		"active":   active,
	}).Info("Payment method visibility changed")

	return nil
}

// GetActiveMethods lists the payment methods users may pick from
func (s *paymentService) GetActiveMethods(ctx context.Context, kind models.PaymentKind) ([]*models.PaymentMethod, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	methods, err := uow.PaymentMethodRepository().GetActive(ctx, kind)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return methods, nil
}
