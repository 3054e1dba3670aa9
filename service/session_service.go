package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bolita/config"
	"bolita/events"
	"bolita/models"

	log "github.com/sirupsen/logrus"
)

type sessionService struct {
	uowFactory UnitOfWorkFactory
	schedule   map[string][]config.SlotWindow
	timezone   *time.Location
	openGrace  time.Duration
	now        func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(uowFactory UnitOfWorkFactory, cfg *config.Config) SessionService {
	return &sessionService{
		uowFactory: uowFactory,
		schedule:   cfg.Schedule,
		timezone:   cfg.Timezone,
		openGrace:  cfg.OpenGracePeriod,
		now:        time.Now,
	}
}

// window returns the schedule window for a region and slot
func (s *sessionService) window(region, slot string) (config.SlotWindow, bool) {
	for _, w := range s.schedule[region] {
		if w.Slot == slot {
			return w, true
		}
	}
	return config.SlotWindow{}, false
}

// at combines a calendar date with a "15:04" wall-clock time in the
// schedule timezone.
func (s *sessionService) at(date time.Time, clock string) time.Time {
	t, _ := time.Parse("15:04", clock)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, s.timezone)
}

// dateOnly truncates a time to midnight in the schedule timezone
func (s *sessionService) dateOnly(t time.Time) time.Time {
	local := t.In(s.timezone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.timezone)
}

// OpenSession creates an open session for a scheduled window. Windows whose
// close time already passed cannot be opened.
func (s *sessionService) OpenSession(ctx context.Context, region string, date time.Time, slot string) (*models.Session, error) {
	w, ok := s.window(region, slot)
	if !ok {
		return nil, fmt.Errorf("%w: no schedule window for %s %s", models.ErrValidation, region, slot)
	}

	date = s.dateOnly(date)
	closeAt := s.at(date, w.Close)
	if !s.now().Before(closeAt) {
		return nil, fmt.Errorf("%w: window %s %s %s already closed",
			models.ErrValidation, region, date.Format("2006-01-02"), slot)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().Create(ctx, &models.Session{
		Region:  region,
		Date:    date,
		Slot:    slot,
		CloseAt: closeAt,
	})
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.SessionOpenedEvent{
		SessionID: session.ID,
		Region:    session.Region,
		Date:      session.Date.Format("2006-01-02"),
		Slot:      session.Slot,
		CloseAt:   session.CloseAt.In(s.timezone).Format("15:04"),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"sessionID": session.ID,
		"region":    region,
		"slot":      slot,
	}).Info("Session opened")

	return session, nil
}

// CloseSession stops a session from accepting wagers
func (s *sessionService) CloseSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := s.closeInUow(ctx, uow, sessionID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("sessionID", sessionID).Info("Session closed")
	return session, nil
}

func (s *sessionService) closeInUow(ctx context.Context, uow UnitOfWork, sessionID int64) (*models.Session, error) {
	session, err := uow.SessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, sessionID)
	}

	closedAt := s.now()
	if err := uow.SessionRepository().Close(ctx, sessionID, closedAt); err != nil {
		return nil, err
	}

	session.State = models.SessionStateClosed
	session.ClosedAt = &closedAt

	uow.EventBus().Publish(events.SessionClosedEvent{
		SessionID: session.ID,
		Region:    session.Region,
		Date:      session.Date.Format("2006-01-02"),
		Slot:      session.Slot,
	})

	return session, nil
}

// GetOpenSessions lists sessions currently accepting wagers
func (s *sessionService) GetOpenSessions(ctx context.Context) ([]*models.Session, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sessions, err := uow.SessionRepository().GetOpen(ctx)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return sessions, nil
}

// GetSession fetches a session, models.ErrNotFound if absent
func (s *sessionService) GetSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	session, err := uow.SessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, sessionID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return session, nil
}

// Tick closes expired sessions, then opens sessions whose scheduled open
// time passed within the grace period. Both halves tolerate races with
// concurrent ticks: Close and Create lose cleanly to whoever got there first.
func (s *sessionService) Tick(ctx context.Context, now time.Time) error {
	if err := s.closeExpired(ctx, now); err != nil {
		return err
	}
	return s.openDue(ctx, now)
}

func (s *sessionService) closeExpired(ctx context.Context, now time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err := uow.SessionRepository().GetExpiredOpen(ctx, now)
	if err != nil {
		return err
	}

	for _, session := range expired {
		if _, err := s.closeInUow(ctx, uow, session.ID); err != nil {
			if errors.Is(err, models.ErrStateConflict) {
				continue
			}
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(expired) > 0 {
		log.WithField("count", len(expired)).Info("Closed expired sessions")
	}
	return nil
}

func (s *sessionService) openDue(ctx context.Context, now time.Time) error {
	date := s.dateOnly(now)

	for region, windows := range s.schedule {
		for _, w := range windows {
			openAt := s.at(date, w.Open)
			closeAt := s.at(date, w.Close)

			if now.Before(openAt) || !now.Before(openAt.Add(s.openGrace)) || !now.Before(closeAt) {
				continue
			}

			if _, err := s.OpenSession(ctx, region, date, w.Slot); err != nil {
				// Already opened by an earlier tick or by hand
				if errors.Is(err, models.ErrStateConflict) {
					continue
				}
				return err
			}
		}
	}

	return nil
}
