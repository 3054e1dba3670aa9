package models

import (
	"time"
)

// PaymentKind distinguishes deposit from withdrawal methods
type PaymentKind string

const (
	PaymentKindDeposit  PaymentKind = "deposit"
	PaymentKindWithdraw PaymentKind = "withdraw"
)

// PaymentMethod is an admin-configured card/account users pay into or are
// paid from.
type PaymentMethod struct {
	ID        int64       `db:"id"`
	Kind      PaymentKind `db:"kind"`
	Name      string      `db:"name"`
	Card      string      `db:"card"`
	Confirm   string      `db:"confirm"`
	Active    bool        `db:"active"`
	CreatedAt time.Time   `db:"created_at"`
}

// PaymentRequestType is the kind of money movement a request asks for
type PaymentRequestType string

const (
	PaymentRequestDeposit  PaymentRequestType = "deposit"
	PaymentRequestWithdraw PaymentRequestType = "withdraw"
	PaymentRequestTransfer PaymentRequestType = "transfer"
)

// PaymentRequestStatus is the review state of a request
type PaymentRequestStatus string

const (
	PaymentStatusPending  PaymentRequestStatus = "pending"
	PaymentStatusApproved PaymentRequestStatus = "approved"
	PaymentStatusRejected PaymentRequestStatus = "rejected"
)

// PaymentRequest is a user-initiated money movement pending admin review.
// Amounts are minor units keyed by currency code.
type PaymentRequest struct {
	ID           int64                `db:"id"`
	UserID       int64                `db:"user_id"`
	Type         PaymentRequestType   `db:"type"`
	Amounts      map[string]int64     `db:"amounts"`
	MethodID     *int64               `db:"method_id"`
	ProofFileID  *string              `db:"proof_file_id"`
	Card         string               `db:"card"` // destination card for withdrawals
	TargetUser   *int64               `db:"target_user"`
	Status       PaymentRequestStatus `db:"status"`
	AdminMessage *string              `db:"admin_message"`
	CreatedAt    time.Time            `db:"created_at"`
	ReviewedAt   *time.Time           `db:"reviewed_at"`
}

// IsPending reports whether the request still awaits review.
func (p *PaymentRequest) IsPending() bool {
	return p.Status == PaymentStatusPending
}
