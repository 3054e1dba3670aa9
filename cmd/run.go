package cmd

import (
	"context"
	"fmt"
	"time"

	"bolita/bot"
	"bolita/config"
	"bolita/database"
	"bolita/events"
	"bolita/metrics"
	"bolita/repository"
	"bolita/service"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetLevel(log.DebugLevel)
	}

	log.Info("Starting bolita bot")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Rate cache is optional; without Redis the rate service reads straight
	// from the database.
	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		cache = redis.NewClient(opts)
		defer cache.Close()
		log.Info("Redis rate cache enabled")
	}

	rates := service.NewRateService(uowFactory, cache, cfg.BaseCurrency)
	users := service.NewUserService(uowFactory)
	wagers := service.NewWagerService(uowFactory, rates, cfg.BaseCurrency, cfg.ReferralCommissionBps)
	sessions := service.NewSessionService(uowFactory, cfg)
	settlement := service.NewSettlementService(uowFactory)

	window := &service.WithdrawWindow{}
	payments := service.NewPaymentService(uowFactory, rates, window, service.PaymentConfig{
		BaseCurrency:    cfg.BaseCurrency,
		WithdrawMinimum: cfg.WithdrawMinimum,
		BonusCUP:        cfg.BonusCUP,
	})

	registerMetrics(ctx, eventBus, sessions)
	if cfg.MetricsAddr != "" {
		go metrics.Serve(cfg.MetricsAddr)
	}

	scheduler := service.NewScheduler(sessions, window, eventBus, cfg)
	scheduler.Start(ctx)

	tgBot, err := bot.New(bot.Config{
		Token:           cfg.BotToken,
		AdminID:         cfg.AdminID,
		AdminChatID:     cfg.AdminChatID,
		DefaultCurrency: cfg.BaseCurrency,
		Timezone:        cfg.Timezone,
	}, users, wagers, sessions, settlement, rates, payments, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize bot: %w", err)
	}

	go tgBot.Start()
	log.WithField("environment", cfg.Environment).Info("Bot is running")

	<-ctx.Done()

	log.Info("Shutting down")
	tgBot.Stop()
	scheduler.Stop()

	// Give in-flight handlers a moment to finish before the pool closes
	time.Sleep(time.Second)

	return nil
}

// registerMetrics keeps the Prometheus counters fed from domain events
func registerMetrics(ctx context.Context, bus *events.Bus, sessions service.SessionService) {
	bus.Subscribe(events.EventTypeWagerPlaced, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.WagerPlacedEvent); ok {
			metrics.RecordWagerPlaced(string(e.BetType))
		}
	})
	bus.Subscribe(events.EventTypeWagerCancelled, func(ctx context.Context, event events.Event) {
		metrics.RecordWagerCancelled()
	})
	bus.Subscribe(events.EventTypePrizePaid, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.PrizePaidEvent)
		if !ok {
			return
		}
		metrics.RecordSettlement(true)
		for currency, amount := range e.Prize {
			metrics.RecordPrize(currency, amount)
		}
	})
	bus.Subscribe(events.EventTypeNoWin, func(ctx context.Context, event events.Event) {
		metrics.RecordSettlement(false)
	})
	bus.Subscribe(events.EventTypeSessionOpened, func(ctx context.Context, event events.Event) {
		metrics.OpenSessions.Inc()
	})
	bus.Subscribe(events.EventTypeSessionClosed, func(ctx context.Context, event events.Event) {
		metrics.OpenSessions.Dec()
	})
	// Seed the gauge so restarts do not zero it out
	if open, err := sessions.GetOpenSessions(ctx); err == nil {
		metrics.OpenSessions.Set(float64(len(open)))
	}
}
