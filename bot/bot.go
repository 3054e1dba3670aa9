package bot

import (
	"sync"
	"time"

	"bolita/events"
	"bolita/models"
	"bolita/service"

	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

// Config holds what the bot needs beyond its services
type Config struct {
	Token           string
	AdminID         int64
	AdminChatID     int64
	DefaultCurrency string
	Timezone        *time.Location
}

// Bot is the Telegram front end. All state lives in the services; the bot
// only keeps the per-user dialog position.
type Bot struct {
	tb  *tele.Bot
	cfg Config

	users      service.UserService
	wagers     service.WagerService
	sessions   service.SessionService
	settlement service.SettlementService
	rates      service.RateService
	payments   service.PaymentService

	mu    sync.Mutex
	flows map[int64]*flowState
}

// flowState tracks one user's position inside a multi-step dialog
type flowState struct {
	kind      string // "play", "deposit", "withdraw"
	sessionID int64
	betType   models.BetType
	methodID  int64
	amounts   map[string]int64
}

// New creates the bot, registers its handlers and wires event notifications
func New(
	cfg Config,
	users service.UserService,
	wagers service.WagerService,
	sessions service.SessionService,
	settlement service.SettlementService,
	rates service.RateService,
	payments service.PaymentService,
	bus *events.Bus,
) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	b := &Bot{
		tb:         tb,
		cfg:        cfg,
		users:      users,
		wagers:     wagers,
		sessions:   sessions,
		settlement: settlement,
		rates:      rates,
		payments:   payments,
		flows:      make(map[int64]*flowState),
	}

	b.registerHandlers()
	b.subscribeNotifications(bus)

	return b, nil
}

// Start begins long polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info("Bot polling started")
	b.tb.Start()
}

// Stop stops long polling
func (b *Bot) Stop() {
	b.tb.Stop()
	log.Info("Bot polling stopped")
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.cfg.AdminID
}

func (b *Bot) setFlow(userID int64, state *flowState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state == nil {
		delete(b.flows, userID)
		return
	}
	b.flows[userID] = state
}

func (b *Bot) flow(userID int64) *flowState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flows[userID]
}
