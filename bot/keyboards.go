package bot

import (
	"fmt"
	"strings"

	"bolita/models"

	tele "gopkg.in/telebot.v3"
)

// Inline buttons carry "\f<kind>|<value>"; flows route on the kind.
const (
	cbSession = "session"
	cbBetType = "bettype"
	cbMethod  = "method"
	cbReview  = "review"
)

func splitCallback(data string) (kind, value string) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")
	kind, value, _ = strings.Cut(data, "|")
	return kind, value
}

func sessionKeyboard(sessions []*models.Session) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, s := range sessions {
		label := fmt.Sprintf("%s %s (%s)", s.Region, s.Slot, s.CloseAt.Format("15:04"))
		rows = append(rows, markup.Row(markup.Data(label, cbSession, fmt.Sprint(s.ID))))
	}
	markup.Inline(rows...)
	return markup
}

func betTypeKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var row tele.Row
	for _, bt := range models.AllBetTypes {
		row = append(row, markup.Data(string(bt), cbBetType, string(bt)))
	}
	markup.Inline(markup.Row(row...))
	return markup
}

func methodKeyboard(methods []*models.PaymentMethod) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, m := range methods {
		rows = append(rows, markup.Row(markup.Data(m.Name, cbMethod, fmt.Sprint(m.ID))))
	}
	markup.Inline(rows...)
	return markup
}

func reviewKeyboard(requestID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Aprobar", cbReview, fmt.Sprintf("%d:approve", requestID)),
		markup.Data("Rechazar", cbReview, fmt.Sprintf("%d:reject", requestID)),
	))
	return markup
}

// formatAmount renders minor units as a decimal with the currency code
func formatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}

func formatAmounts(amounts map[string]int64) string {
	var parts []string
	for currency, amount := range amounts {
		parts = append(parts, formatAmount(amount, currency))
	}
	return strings.Join(parts, " + ")
}
