package models

import (
	"time"
)

// TransactionType represents the kind of balance change
type TransactionType string

const (
	TransactionTypeWagerStake       TransactionType = "wager_stake"
	TransactionTypeWagerRefund      TransactionType = "wager_refund"
	TransactionTypeBonusStake       TransactionType = "bonus_stake"
	TransactionTypeBonusRefund      TransactionType = "bonus_refund"
	TransactionTypeBonusGrant       TransactionType = "bonus_grant"
	TransactionTypePrize            TransactionType = "prize"
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeWithdrawalRefund TransactionType = "withdrawal_refund"
	TransactionTypeTransferIn       TransactionType = "transfer_in"
	TransactionTypeTransferOut      TransactionType = "transfer_out"
	TransactionTypeCommission       TransactionType = "referral_commission"
)

// RelatedType represents what entity a history row points back to
type RelatedType string

const (
	RelatedTypeWager          RelatedType = "wager"
	RelatedTypeSession        RelatedType = "session"
	RelatedTypePaymentRequest RelatedType = "payment_request"
)

// BalanceHistory records one balance mutation. Bonus-balance rows carry the
// base currency code and a bonus_* transaction type.
type BalanceHistory struct {
	ID              int64            `db:"id"`
	UserID          int64            `db:"user_id"`
	Currency        string           `db:"currency"`
	BalanceBefore   int64            `db:"balance_before"`
	BalanceAfter    int64            `db:"balance_after"`
	ChangeAmount    int64            `db:"change_amount"`
	TransactionType TransactionType  `db:"transaction_type"`
	Metadata        map[string]any   `db:"metadata"`
	RelatedID       *int64           `db:"related_id"`
	RelatedType     *RelatedType     `db:"related_type"`
	CreatedAt       time.Time        `db:"created_at"`
}
