package bot

import (
	"context"
	"fmt"

	"bolita/events"

	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// subscribeNotifications pushes Telegram messages for events emitted after
// transactions commit. Send failures are logged and dropped; notifications
// are best effort.
func (b *Bot) subscribeNotifications(bus *events.Bus) {
	bus.Subscribe(events.EventTypePrizePaid, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.PrizePaidEvent)
		if !ok {
			return
		}
		b.notifyUser(e.UserID, fmt.Sprintf(
			"¡Premio! Tu apuesta #%d ganó %s. Ya está en tu saldo.",
			e.WagerID, formatAmounts(e.Prize)))
	})

	bus.Subscribe(events.EventTypeNoWin, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.NoWinEvent)
		if !ok {
			return
		}
		b.notifyUser(e.UserID, fmt.Sprintf(
			"Tu apuesta #%d no salió premiada esta vez. ¡Suerte en la próxima!", e.WagerID))
	})

	bus.Subscribe(events.EventTypeWinnerPublished, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.WinnerPublishedEvent)
		if !ok {
			return
		}
		b.notifyAdmin(fmt.Sprintf("Número de %s %s %s: %s", e.Region, e.Date, e.Slot, e.Digits), nil)
	})

	bus.Subscribe(events.EventTypeSessionOpened, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.SessionOpenedEvent)
		if !ok {
			return
		}
		b.notifyAdmin(fmt.Sprintf(
			"Sesión #%d abierta: %s %s, cierra a las %s.", e.SessionID, e.Region, e.Slot, e.CloseAt), nil)
	})

	bus.Subscribe(events.EventTypeSessionClosed, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.SessionClosedEvent)
		if !ok {
			return
		}
		b.notifyAdmin(fmt.Sprintf(
			"Sesión #%d cerrada: %s %s. Falta publicar el número.", e.SessionID, e.Region, e.Slot), nil)
	})

	bus.Subscribe(events.EventTypePaymentReviewed, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.PaymentReviewedEvent)
		if !ok {
			return
		}
		b.notifyUser(e.UserID, paymentReviewedText(e))
	})

	bus.Subscribe(events.EventTypeWithdrawWindow, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.WithdrawWindowEvent)
		if !ok {
			return
		}
		if e.Open {
			b.notifyAdmin("Ventana de retiros abierta.", nil)
		} else {
			b.notifyAdmin("Ventana de retiros cerrada.", nil)
		}
	})
}

func paymentReviewedText(e events.PaymentReviewedEvent) string {
	var text string
	switch {
	case e.Status == "approved" && e.Kind == "deposit":
		text = fmt.Sprintf("Depósito #%d aprobado: %s acreditado.", e.RequestID, formatAmounts(e.Amounts))
	case e.Status == "approved":
		text = fmt.Sprintf("Retiro #%d aprobado: %s en camino a tu tarjeta.", e.RequestID, formatAmounts(e.Amounts))
	case e.Kind == "deposit":
		text = fmt.Sprintf("Depósito #%d rechazado.", e.RequestID)
	default:
		text = fmt.Sprintf("Retiro #%d rechazado: %s devuelto a tu saldo.", e.RequestID, formatAmounts(e.Amounts))
	}
	if e.Message != "" {
		text += "\nNota del administrador: " + e.Message
	}
	return text
}

func (b *Bot) notifyUser(userID int64, text string) {
	if _, err := b.tb.Send(&tele.User{ID: userID}, text); err != nil {
		log.WithFields(log.Fields{"userID": userID}).WithError(err).Warn("Could not notify user")
	}
}
