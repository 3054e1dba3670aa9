package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bolita/metrics"
	"bolita/models"

	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/help", b.handleHelp)
	b.tb.Handle("/saldo", b.handleBalance)
	b.tb.Handle("/jugar", b.handlePlay)
	b.tb.Handle("/jugadas", b.handleMyWagers)
	b.tb.Handle("/cancelar", b.handleCancel)
	b.tb.Handle("/numeros", b.handleNumbers)
	b.tb.Handle("/historial", b.handleHistory)
	b.tb.Handle("/depositar", b.handleDeposit)
	b.tb.Handle("/retirar", b.handleWithdraw)
	b.tb.Handle("/transferir", b.handleTransfer)

	// Admin commands
	b.tb.Handle("/abrir", b.handleAdminOpen)
	b.tb.Handle("/cerrar", b.handleAdminClose)
	b.tb.Handle("/publicar", b.handleAdminPublish)
	b.tb.Handle("/reliquidar", b.handleAdminResettle)
	b.tb.Handle("/pendientes", b.handleAdminPending)
	b.tb.Handle("/tasa", b.handleAdminRate)
	b.tb.Handle("/metodo", b.handleAdminMethod)
	b.tb.Handle("/precio", b.handleAdminBetType)

	b.tb.Handle(tele.OnCallback, b.handleCallback)
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnPhoto, b.handlePhoto)
}

// replyError translates domain errors into user-facing Spanish messages
func replyError(c tele.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return c.Send("No entendí la jugada. Revisa el formato e intenta de nuevo.")
	case errors.Is(err, models.ErrInsufficientFunds):
		return c.Send("Saldo insuficiente para esa operación.")
	case errors.Is(err, models.ErrStateConflict):
		return c.Send("Esa operación ya no es posible, el estado cambió.")
	case errors.Is(err, models.ErrNotFound):
		return c.Send("No encontré lo que pediste.")
	default:
		log.WithError(err).Error("Handler failed")
		return c.Send("Ocurrió un error, intenta de nuevo en un momento.")
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()

	// The deep-link payload carries the referrer's id
	var referrer *int64
	if payload := strings.TrimSpace(c.Message().Payload); payload != "" {
		if id, err := strconv.ParseInt(payload, 10, 64); err == nil && id != sender.ID {
			referrer = &id
		}
	}

	account, err := b.users.GetOrCreateAccount(ctx, sender.ID, sender.FirstName, referrer)
	if err != nil {
		return replyError(c, err)
	}

	return c.Send(fmt.Sprintf(
		"Hola %s, bienvenido a la bolita.\n\n"+
			"Usa /jugar para apostar, /saldo para ver tu cuenta y /help para la lista completa de comandos.\n"+
			"Tu enlace de referido: t.me/%s?start=%d",
		account.FirstName, b.tb.Me.Username, account.UserID,
	))
}

func (b *Bot) handleHelp(c tele.Context) error {
	help := "Comandos disponibles:\n\n" +
		"/jugar - apostar en una sesión abierta\n" +
		"/jugadas - tus apuestas recientes\n" +
		"/cancelar <id> - cancelar una apuesta antes del cierre\n" +
		"/saldo - tu saldo y bono\n" +
		"/numeros - últimos números ganadores\n" +
		"/historial - movimientos de tu cuenta\n" +
		"/depositar - recargar saldo\n" +
		"/retirar - retirar saldo\n" +
		"/transferir <usuario> <monto> <moneda> - enviar saldo a otro jugador\n\n" +
		"Formato de jugada: números separados por espacio, luego `con` y el monto.\n" +
		"Ejemplo: `12 34 con 50 cup` o `D2 con 5 usd`"
	if b.isAdmin(c.Sender().ID) {
		help += "\n\nAdmin:\n/abrir <region> <slot> [fecha]\n/cerrar <sesión>\n/publicar <sesión> <7 dígitos>\n/reliquidar <sesión>\n/pendientes\n/tasa <moneda> <tasa>\n/metodo\n/precio"
	}
	return c.Send(help)
}

func (b *Bot) handleBalance(c tele.Context) error {
	account, err := b.users.GetAccount(context.Background(), c.Sender().ID)
	if err != nil {
		return replyError(c, err)
	}

	var sb strings.Builder
	sb.WriteString("Tu saldo:\n")
	if len(account.Balances) == 0 {
		sb.WriteString("  (vacío)\n")
	}
	for currency, amount := range account.Balances {
		sb.WriteString(fmt.Sprintf("  %s\n", formatAmount(amount, currency)))
	}
	if account.Bonus > 0 {
		sb.WriteString(fmt.Sprintf("Bono: %s\n", formatAmount(account.Bonus, b.cfg.DefaultCurrency)))
	}
	return c.Send(sb.String())
}

func (b *Bot) handlePlay(c tele.Context) error {
	sessions, err := b.sessions.GetOpenSessions(context.Background())
	if err != nil {
		return replyError(c, err)
	}
	if len(sessions) == 0 {
		return c.Send("No hay sesiones abiertas ahora mismo. Vuelve en el próximo horario.")
	}

	b.setFlow(c.Sender().ID, &flowState{kind: "play"})
	return c.Send("Elige la sesión:", sessionKeyboard(sessions))
}

func (b *Bot) handleMyWagers(c tele.Context) error {
	wagers, err := b.wagers.GetUserWagers(context.Background(), c.Sender().ID, 10)
	if err != nil {
		return replyError(c, err)
	}
	if len(wagers) == 0 {
		return c.Send("No tienes apuestas todavía. Usa /jugar.")
	}

	var sb strings.Builder
	sb.WriteString("Tus apuestas recientes:\n\n")
	for _, w := range wagers {
		status := "pendiente"
		if w.IsSettled() {
			if w.Won != nil && *w.Won {
				status = "ganada " + formatAmounts(w.Prize)
			} else {
				status = "no premiada"
			}
		}
		sb.WriteString(fmt.Sprintf("#%d %s: %s | %s\n", w.ID, w.BetType, formatAmounts(w.CostByCurrency()), status))
	}
	return c.Send(sb.String())
}

func (b *Bot) handleCancel(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Uso: /cancelar <id de apuesta>")
	}
	wagerID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Uso: /cancelar <id de apuesta>")
	}

	if err := b.wagers.CancelWager(context.Background(), c.Sender().ID, wagerID); err != nil {
		return replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Apuesta #%d cancelada y reembolsada.", wagerID))
}

func (b *Bot) handleNumbers(c tele.Context) error {
	numbers, err := b.settlement.GetRecentNumbers(context.Background(), 9)
	if err != nil {
		return replyError(c, err)
	}
	if len(numbers) == 0 {
		return c.Send("Todavía no hay números publicados.")
	}

	var sb strings.Builder
	sb.WriteString("Últimos números:\n\n")
	for _, n := range numbers {
		sb.WriteString(fmt.Sprintf("%s %s %s: %s\n", n.Region, n.Date.Format("02/01"), n.Slot, n.Digits))
	}
	return c.Send(sb.String())
}

func (b *Bot) handleHistory(c tele.Context) error {
	entries, err := b.users.GetBalanceHistory(context.Background(), c.Sender().ID, 15)
	if err != nil {
		return replyError(c, err)
	}
	if len(entries) == 0 {
		return c.Send("Sin movimientos todavía.")
	}

	var sb strings.Builder
	sb.WriteString("Movimientos recientes:\n\n")
	for _, e := range entries {
		sign := "+"
		amount := e.ChangeAmount
		if amount < 0 {
			sign = "-"
			amount = -amount
		}
		sb.WriteString(fmt.Sprintf("%s %s%s (%s)\n",
			e.CreatedAt.In(b.cfg.Timezone).Format("02/01 15:04"),
			sign, formatAmount(amount, e.Currency), e.TransactionType))
	}
	return c.Send(sb.String())
}

func (b *Bot) handleDeposit(c tele.Context) error {
	methods, err := b.payments.GetActiveMethods(context.Background(), models.PaymentKindDeposit)
	if err != nil {
		return replyError(c, err)
	}
	if len(methods) == 0 {
		return c.Send("No hay métodos de depósito configurados ahora.")
	}

	b.setFlow(c.Sender().ID, &flowState{kind: "deposit"})
	return c.Send("Elige el método de depósito:", methodKeyboard(methods))
}

func (b *Bot) handleWithdraw(c tele.Context) error {
	methods, err := b.payments.GetActiveMethods(context.Background(), models.PaymentKindWithdraw)
	if err != nil {
		return replyError(c, err)
	}
	if len(methods) == 0 {
		return c.Send("No hay métodos de retiro configurados ahora.")
	}

	b.setFlow(c.Sender().ID, &flowState{kind: "withdraw"})
	return c.Send("Elige el método de retiro:", methodKeyboard(methods))
}

func (b *Bot) handleTransfer(c tele.Context) error {
	args := c.Args()
	if len(args) != 3 {
		return c.Send("Uso: /transferir <usuario> <monto> <moneda>")
	}

	toUserID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("El usuario debe ser un número de id.")
	}
	amount, ok := parseMoney(args[1])
	if !ok {
		return c.Send("Monto inválido.")
	}
	currency := strings.ToUpper(args[2])

	if err := b.payments.Transfer(context.Background(), c.Sender().ID, toUserID, currency, amount); err != nil {
		return replyError(c, err)
	}
	metrics.RecordPaymentRequest("transfer")

	if _, err := b.tb.Send(&tele.User{ID: toUserID},
		fmt.Sprintf("Recibiste %s de una transferencia.", formatAmount(amount, currency))); err != nil {
		log.WithError(err).Warn("Could not notify transfer recipient")
	}
	return c.Send("Transferencia realizada.")
}

// --- Callback and flow routing ---

func (b *Bot) handleCallback(c tele.Context) error {
	kind, value := splitCallback(c.Callback().Data)
	userID := c.Sender().ID

	switch kind {
	case cbSession:
		state := b.flow(userID)
		if state == nil || state.kind != "play" {
			return c.Respond()
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return c.Respond()
		}
		state.sessionID = id
		b.setFlow(userID, state)
		if err := c.Respond(); err != nil {
			return err
		}
		return c.Send("Tipo de jugada:", betTypeKeyboard())

	case cbBetType:
		state := b.flow(userID)
		if state == nil || state.kind != "play" || state.sessionID == 0 {
			return c.Respond()
		}
		betType := models.BetType(value)
		if !betType.Valid() {
			return c.Respond()
		}
		state.betType = betType
		b.setFlow(userID, state)
		if err := c.Respond(); err != nil {
			return err
		}
		return c.Send("Manda tus jugadas. Ejemplo: `12 34 con 50 cup`",
			&tele.SendOptions{ParseMode: tele.ModeMarkdown})

	case cbMethod:
		state := b.flow(userID)
		if state == nil || (state.kind != "deposit" && state.kind != "withdraw") {
			return c.Respond()
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return c.Respond()
		}
		state.methodID = id
		b.setFlow(userID, state)
		if err := c.Respond(); err != nil {
			return err
		}
		if state.kind == "deposit" {
			return c.Send("¿Cuánto depositaste? Ejemplo: `500 CUP`",
				&tele.SendOptions{ParseMode: tele.ModeMarkdown})
		}
		return c.Send("Manda: monto, moneda y tarjeta destino. Ejemplo: `200 CUP 9224-0699-0000-0000`",
			&tele.SendOptions{ParseMode: tele.ModeMarkdown})

	case cbReview:
		if !b.isAdmin(userID) {
			return c.Respond(&tele.CallbackResponse{Text: "Solo el administrador puede revisar."})
		}
		return b.reviewFromCallback(c, value)
	}

	return c.Respond()
}

func (b *Bot) reviewFromCallback(c tele.Context, value string) error {
	idText, action, _ := strings.Cut(value, ":")
	requestID, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return c.Respond()
	}

	request, err := b.payments.ReviewRequest(context.Background(), requestID, action == "approve", "")
	if err != nil {
		if errors.Is(err, models.ErrStateConflict) {
			return c.Respond(&tele.CallbackResponse{Text: "Ya fue revisada."})
		}
		log.WithError(err).Error("Review failed")
		return c.Respond(&tele.CallbackResponse{Text: "Error al revisar."})
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "Listo."}); err != nil {
		return err
	}
	return c.Edit(fmt.Sprintf("Solicitud #%d %s: %s",
		request.ID, request.Type, request.Status))
}

func (b *Bot) handleText(c tele.Context) error {
	userID := c.Sender().ID
	state := b.flow(userID)
	if state == nil {
		return nil
	}

	switch state.kind {
	case "play":
		if state.sessionID == 0 || !state.betType.Valid() {
			return nil
		}
		b.setFlow(userID, nil)
		return b.placeFromText(c, state)

	case "deposit":
		if state.methodID == 0 || state.amounts != nil {
			return nil
		}
		amounts, ok := parseMoneyLine(c.Text(), b.cfg.DefaultCurrency)
		if !ok {
			return c.Send("No entendí el monto. Ejemplo: `500 CUP`",
				&tele.SendOptions{ParseMode: tele.ModeMarkdown})
		}
		state.amounts = amounts
		b.setFlow(userID, state)
		return c.Send("Ahora manda la foto del comprobante de transferencia.")

	case "withdraw":
		if state.methodID == 0 {
			return nil
		}
		b.setFlow(userID, nil)
		return b.withdrawFromText(c, state)
	}

	return nil
}

func (b *Bot) placeFromText(c tele.Context, state *flowState) error {
	result, err := b.wagers.PlaceWager(context.Background(),
		c.Sender().ID, state.sessionID, state.betType, c.Text(), b.cfg.DefaultCurrency)
	if err != nil {
		return replyError(c, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Apuesta #%d registrada: %s por %s.\n",
		result.Wager.ID, result.Wager.BetType, formatAmounts(result.Wager.CostByCurrency())))
	if len(result.Rejected) > 0 {
		sb.WriteString("\nNo se aceptaron:\n")
		for _, r := range result.Rejected {
			sb.WriteString("  " + r + "\n")
		}
	}
	sb.WriteString("\nSaldo restante:\n")
	for currency, amount := range result.Account.Balances {
		sb.WriteString(fmt.Sprintf("  %s\n", formatAmount(amount, currency)))
	}
	return c.Send(sb.String())
}

func (b *Bot) withdrawFromText(c tele.Context, state *flowState) error {
	fields := strings.Fields(c.Text())
	if len(fields) < 3 {
		return c.Send("Formato: monto moneda tarjeta. Ejemplo: `200 CUP 9224-0699-0000-0000`",
			&tele.SendOptions{ParseMode: tele.ModeMarkdown})
	}
	amount, ok := parseMoney(fields[0])
	if !ok {
		return c.Send("Monto inválido.")
	}
	currency := strings.ToUpper(fields[1])
	card := strings.Join(fields[2:], " ")

	request, err := b.payments.RequestWithdrawal(context.Background(), c.Sender().ID,
		map[string]int64{currency: amount}, state.methodID, card)
	if err != nil {
		return replyError(c, err)
	}
	metrics.RecordPaymentRequest("withdraw")

	b.notifyAdmin(fmt.Sprintf("Retiro #%d de %d: %s a %s",
		request.ID, request.UserID, formatAmounts(request.Amounts), card),
		reviewKeyboard(request.ID))

	return c.Send(fmt.Sprintf("Solicitud de retiro #%d enviada. El monto quedó reservado hasta la revisión.", request.ID))
}

func (b *Bot) handlePhoto(c tele.Context) error {
	userID := c.Sender().ID
	state := b.flow(userID)
	if state == nil || state.kind != "deposit" || state.amounts == nil {
		return nil
	}
	b.setFlow(userID, nil)

	photo := c.Message().Photo
	if photo == nil {
		return c.Send("Necesito la foto del comprobante.")
	}

	request, err := b.payments.RequestDeposit(context.Background(), userID, state.amounts, state.methodID, photo.FileID)
	if err != nil {
		return replyError(c, err)
	}
	metrics.RecordPaymentRequest("deposit")

	b.notifyAdmin(fmt.Sprintf("Depósito #%d de %d: %s",
		request.ID, request.UserID, formatAmounts(request.Amounts)),
		reviewKeyboard(request.ID))

	return c.Send(fmt.Sprintf("Solicitud de depósito #%d enviada. Te aviso cuando la revisen.", request.ID))
}

// --- Admin commands ---

func (b *Bot) handleAdminOpen(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Uso: /abrir <region> <slot> [YYYY-MM-DD]")
	}

	date := time.Now().In(b.cfg.Timezone)
	if len(args) >= 3 {
		parsed, err := time.ParseInLocation("2006-01-02", args[2], b.cfg.Timezone)
		if err != nil {
			return c.Send("Fecha inválida, usa YYYY-MM-DD.")
		}
		date = parsed
	}

	session, err := b.sessions.OpenSession(context.Background(), args[0], date, args[1])
	if err != nil {
		return replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Sesión #%d abierta: %s %s, cierra %s.",
		session.ID, session.Region, session.Slot, session.CloseAt.In(b.cfg.Timezone).Format("15:04")))
}

func (b *Bot) handleAdminClose(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Uso: /cerrar <sesión>")
	}
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Uso: /cerrar <sesión>")
	}

	session, err := b.sessions.CloseSession(context.Background(), sessionID)
	if err != nil {
		return replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Sesión #%d (%s %s) cerrada.", session.ID, session.Region, session.Slot))
}

func (b *Bot) handleAdminPublish(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Uso: /publicar <sesión> <7 dígitos>")
	}
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Uso: /publicar <sesión> <7 dígitos>")
	}

	result, err := b.settlement.PublishWinner(context.Background(), sessionID, args[1])
	if err != nil {
		return replyError(c, err)
	}
	return c.Send(formatSettlement(result))
}

func (b *Bot) handleAdminResettle(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Uso: /reliquidar <sesión>")
	}
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Uso: /reliquidar <sesión>")
	}

	result, err := b.settlement.ResettleSession(context.Background(), sessionID)
	if err != nil {
		return replyError(c, err)
	}
	return c.Send(formatSettlement(result))
}

func formatSettlement(result *models.SettlementResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Número %s liquidado: %d apuestas, %d ganadores",
		result.Digits, result.Settled, len(result.Winners)))
	if result.Failed > 0 {
		sb.WriteString(fmt.Sprintf(", %d fallidas (usa /reliquidar)", result.Failed))
	}
	sb.WriteString(".\n")
	for _, w := range result.Winners {
		sb.WriteString(fmt.Sprintf("  jugador %d gana %s\n", w.UserID, formatAmounts(w.Prize)))
	}
	return sb.String()
}

func (b *Bot) handleAdminPending(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}

	requests, err := b.payments.GetPendingRequests(context.Background())
	if err != nil {
		return replyError(c, err)
	}
	if len(requests) == 0 {
		return c.Send("No hay solicitudes pendientes.")
	}

	for _, r := range requests {
		if err := c.Send(fmt.Sprintf("#%d %s de %d: %s",
			r.ID, r.Type, r.UserID, formatAmounts(r.Amounts)), reviewKeyboard(r.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleAdminRate(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	args := c.Args()
	if len(args) != 2 {
		return c.Send("Uso: /tasa <moneda> <tasa>")
	}
	rate, err := strconv.ParseFloat(args[1], 64)
	if err != nil || rate <= 0 {
		return c.Send("Tasa inválida.")
	}

	currency := strings.ToUpper(args[0])
	if err := b.rates.SetRate(context.Background(), currency, rate); err != nil {
		return replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Tasa de %s actualizada a %.2f.", currency, rate))
}

// handleAdminMethod manages payment methods: "/metodo" lists, "/metodo
// deposito|retiro <nombre> <tarjeta> [confirmación]" adds, "/metodo on|off
// <id>" toggles visibility.
func (b *Bot) handleAdminMethod(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	ctx := context.Background()
	args := c.Args()

	if len(args) == 0 {
		var sb strings.Builder
		sb.WriteString("Métodos activos:\n")
		for _, kind := range []models.PaymentKind{models.PaymentKindDeposit, models.PaymentKindWithdraw} {
			methods, err := b.payments.GetActiveMethods(ctx, kind)
			if err != nil {
				return replyError(c, err)
			}
			for _, m := range methods {
				sb.WriteString(fmt.Sprintf("  #%d [%s] %s: %s\n", m.ID, m.Kind, m.Name, m.Card))
			}
		}
		sb.WriteString("\nAgregar: /metodo deposito|retiro <nombre> <tarjeta> [confirmación]\nOcultar: /metodo off <id>")
		return c.Send(sb.String())
	}

	switch args[0] {
	case "on", "off":
		if len(args) != 2 {
			return c.Send("Uso: /metodo on|off <id>")
		}
		methodID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return c.Send("Uso: /metodo on|off <id>")
		}
		if err := b.payments.SetMethodActive(ctx, methodID, args[0] == "on"); err != nil {
			return replyError(c, err)
		}
		return c.Send(fmt.Sprintf("Método #%d actualizado.", methodID))

	case "deposito", "retiro":
		if len(args) < 3 {
			return c.Send("Uso: /metodo deposito|retiro <nombre> <tarjeta> [confirmación]")
		}
		kind := models.PaymentKindDeposit
		if args[0] == "retiro" {
			kind = models.PaymentKindWithdraw
		}
		confirm := ""
		if len(args) >= 4 {
			confirm = strings.Join(args[3:], " ")
		}
		method, err := b.payments.AddMethod(ctx, kind, args[1], args[2], confirm)
		if err != nil {
			return replyError(c, err)
		}
		return c.Send(fmt.Sprintf("Método #%d (%s) agregado.", method.ID, method.Name))
	}

	return c.Send("Uso: /metodo [deposito|retiro|on|off] ...")
}

// handleAdminBetType manages bet type pricing: "/precio" lists, "/precio
// <tipo> mult <n>" changes the multiplier, "/precio <tipo> <moneda>
// <defecto> <min> <max>" sets the stake bounds for one currency.
func (b *Bot) handleAdminBetType(c tele.Context) error {
	if !b.isAdmin(c.Sender().ID) {
		return nil
	}
	ctx := context.Background()
	args := c.Args()

	configs, err := b.wagers.GetBetTypeConfigs(ctx)
	if err != nil {
		return replyError(c, err)
	}

	if len(args) == 0 {
		var sb strings.Builder
		sb.WriteString("Precios:\n")
		for _, cfg := range configs {
			sb.WriteString(fmt.Sprintf("  %s x%d, defecto %s, min %s, max %s\n",
				cfg.BetType, cfg.Multiplier,
				formatAmounts(cfg.DefaultStake), formatAmounts(cfg.MinStake), formatAmounts(cfg.MaxStake)))
		}
		sb.WriteString("\nCambiar: /precio <tipo> mult <n> o /precio <tipo> <moneda> <defecto> <min> <max>")
		return c.Send(sb.String())
	}

	betType := models.BetType(strings.ToLower(args[0]))
	var target *models.BetTypeConfig
	for _, cfg := range configs {
		if cfg.BetType == betType {
			target = cfg
		}
	}
	if target == nil {
		return c.Send("Tipo desconocido. Usa fijo, corridos, centena o parle.")
	}

	switch {
	case len(args) == 3 && args[1] == "mult":
		multiplier, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || multiplier <= 0 {
			return c.Send("Multiplicador inválido.")
		}
		target.Multiplier = multiplier

	case len(args) == 5:
		currency := strings.ToUpper(args[1])
		stake, okStake := parseMoney(args[2])
		min, okMin := parseMoney(args[3])
		max, okMax := parseMoney(args[4])
		if !okStake || !okMin || !okMax || min > max {
			return c.Send("Montos inválidos.")
		}
		target.DefaultStake[currency] = stake
		target.MinStake[currency] = min
		target.MaxStake[currency] = max

	default:
		return c.Send("Uso: /precio <tipo> mult <n> o /precio <tipo> <moneda> <defecto> <min> <max>")
	}

	if err := b.wagers.UpdateBetTypeConfig(ctx, target); err != nil {
		return replyError(c, err)
	}
	return c.Send(fmt.Sprintf("Configuración de %s actualizada.", betType))
}

// --- helpers ---

// parseMoney converts a decimal string into minor units
func parseMoney(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	whole, frac, hasFrac := strings.Cut(s, ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, false
	}
	cents := int64(0)
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, false
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
	}
	return units*100 + cents, true
}

// parseMoneyLine parses "500 CUP" into an amounts map, defaulting the
// currency when omitted
func parseMoneyLine(s, defaultCurrency string) (map[string]int64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, false
	}
	amount, ok := parseMoney(fields[0])
	if !ok || amount <= 0 {
		return nil, false
	}
	currency := strings.ToUpper(defaultCurrency)
	if len(fields) == 2 {
		currency = strings.ToUpper(fields[1])
	}
	return map[string]int64{currency: amount}, true
}

func (b *Bot) notifyAdmin(text string, markup *tele.ReplyMarkup) {
	chat := &tele.Chat{ID: b.cfg.AdminChatID}
	var err error
	if markup != nil {
		_, err = b.tb.Send(chat, text, markup)
	} else {
		_, err = b.tb.Send(chat, text)
	}
	if err != nil {
		log.WithError(err).Warn("Could not notify admin chat")
	}
}
