package service

import (
	"context"
	"sync/atomic"
	"time"

	"bolita/config"
	"bolita/events"
	"bolita/metrics"

	log "github.com/sirupsen/logrus"
)

// WithdrawWindow is the shared flag the scheduler maintains and the payment
// service consults before accepting a withdrawal.
type WithdrawWindow struct {
	open atomic.Bool
}

// IsOpen reports whether withdrawals are currently accepted
func (w *WithdrawWindow) IsOpen() bool {
	return w.open.Load()
}

// set updates the flag and reports whether it changed
func (w *WithdrawWindow) set(open bool) bool {
	return w.open.Swap(open) != open
}

// Scheduler drives the periodic housekeeping: closing expired sessions,
// opening due ones and flipping the withdrawal window flag.
type Scheduler struct {
	sessions SessionService
	window   *WithdrawWindow
	bus      *events.Bus
	cfg      *config.Config
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(sessions SessionService, window *WithdrawWindow, bus *events.Bus, cfg *config.Config) *Scheduler {
	return &Scheduler{
		sessions: sessions,
		window:   window,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start launches the tick loop. An immediate first tick brings the state
// current after a restart.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	log.WithField("interval", s.cfg.TickInterval).Info("Scheduler started")
}

// Stop cancels the tick loop and waits for it to finish
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	log.Info("Scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	metrics.SchedulerTicksTotal.Inc()

	if err := s.sessions.Tick(ctx, now); err != nil {
		log.WithError(err).Error("Session tick failed")
	}

	s.updateWithdrawWindow(ctx, now)
}

// updateWithdrawWindow recomputes the window flag from the configured
// wall-clock bounds and announces transitions on the event bus.
func (s *Scheduler) updateWithdrawWindow(ctx context.Context, now time.Time) {
	open := withinWindow(now.In(s.cfg.Timezone), s.cfg.WithdrawOpen, s.cfg.WithdrawClose)
	if !s.window.set(open) {
		return
	}

	log.WithField("open", open).Info("Withdrawal window changed")
	s.bus.Emit(ctx, events.WithdrawWindowEvent{Open: open})
}

// withinWindow reports whether the local time falls inside the [open, close)
// wall-clock range. A close before the open wraps past midnight.
func withinWindow(local time.Time, openClock, closeClock string) bool {
	open, err := time.Parse("15:04", openClock)
	if err != nil {
		return true
	}
	closeAt, err := time.Parse("15:04", closeClock)
	if err != nil {
		return true
	}

	minutes := local.Hour()*60 + local.Minute()
	openMin := open.Hour()*60 + open.Minute()
	closeMin := closeAt.Hour()*60 + closeAt.Minute()

	if openMin <= closeMin {
		return minutes >= openMin && minutes < closeMin
	}
	return minutes >= openMin || minutes < closeMin
}
