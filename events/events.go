package events

import (
	"context"
	"sync"

	"bolita/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeAccountCreated  EventType = "account_created"
	EventTypeWagerPlaced     EventType = "wager_placed"
	EventTypeWagerCancelled  EventType = "wager_cancelled"
	EventTypeSessionOpened   EventType = "session_opened"
	EventTypeSessionClosed   EventType = "session_closed"
	EventTypeWinnerPublished EventType = "winner_published"
	EventTypePrizePaid       EventType = "prize_paid"
	EventTypeNoWin           EventType = "no_win"
	EventTypeWithdrawWindow  EventType = "withdraw_window"
	EventTypePaymentReviewed EventType = "payment_reviewed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	Currency        string
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a new account creation
type AccountCreatedEvent struct {
	UserID    int64
	FirstName string
	Referrer  *int64
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// WagerPlacedEvent represents a wager accepted into a session
type WagerPlacedEvent struct {
	UserID    int64
	WagerID   int64
	SessionID int64
	BetType   models.BetType
	Cost      map[string]int64
	BonusUsed int64
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerCancelledEvent represents a wager refunded before the session closed
type WagerCancelledEvent struct {
	UserID    int64
	WagerID   int64
	SessionID int64
	Refund    map[string]int64
}

func (e WagerCancelledEvent) Type() EventType {
	return EventTypeWagerCancelled
}

// SessionOpenedEvent represents a session starting to accept wagers
type SessionOpenedEvent struct {
	SessionID int64
	Region    string
	Date      string
	Slot      string
	CloseAt   string
}

func (e SessionOpenedEvent) Type() EventType {
	return EventTypeSessionOpened
}

// SessionClosedEvent represents a session that stopped accepting wagers
type SessionClosedEvent struct {
	SessionID int64
	Region    string
	Date      string
	Slot      string
}

func (e SessionClosedEvent) Type() EventType {
	return EventTypeSessionClosed
}

// WinnerPublishedEvent represents a winning number recorded for a session
type WinnerPublishedEvent struct {
	SessionID int64
	Region    string
	Date      string
	Slot      string
	Digits    string
}

func (e WinnerPublishedEvent) Type() EventType {
	return EventTypeWinnerPublished
}

// PrizePaidEvent represents a winning wager credited to a player
type PrizePaidEvent struct {
	UserID    int64
	WagerID   int64
	SessionID int64
	Prize     map[string]int64
}

func (e PrizePaidEvent) Type() EventType {
	return EventTypePrizePaid
}

// NoWinEvent represents a settled wager that did not win
type NoWinEvent struct {
	UserID    int64
	WagerID   int64
	SessionID int64
}

func (e NoWinEvent) Type() EventType {
	return EventTypeNoWin
}

// WithdrawWindowEvent represents the withdrawal window opening or closing
type WithdrawWindowEvent struct {
	Open bool
}

func (e WithdrawWindowEvent) Type() EventType {
	return EventTypeWithdrawWindow
}

// PaymentReviewedEvent represents a payment request approved or rejected
type PaymentReviewedEvent struct {
	RequestID int64
	UserID    int64
	Kind      models.PaymentRequestType
	Status    models.PaymentRequestStatus
	Amounts   map[string]int64
	Message   string
}

func (e PaymentReviewedEvent) Type() EventType {
	return EventTypePaymentReviewed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction, so do not reuse its context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
