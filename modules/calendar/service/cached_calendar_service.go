package service

import (
	"context"

	"schedule-agent/core/logger"
	"schedule-agent/modules/calendar/entity"
	"schedule-agent/modules/calendar/repository"
)

type cachedCalendarService struct {
	next CalendarService
	repo repository.CalendarRepository
	date func(*entity.Event) string
}

// NewCachedCalendarService serves ListEvents from repo and invalidates the
// affected date on every write. Cache failures fall through to next.
func NewCachedCalendarService(next CalendarService, repo repository.CalendarRepository, dateOf func(*entity.Event) string) CalendarService {
	return &cachedCalendarService{next: next, repo: repo, date: dateOf}
}

func (s *cachedCalendarService) ListEvents(ctx context.Context, date string) ([]entity.Event, error) {
	if events, ok, err := s.repo.GetEvents(ctx, date); err != nil {
		logger.Warn("CachedCalendarService:ListEvents:CacheGet:Error", "date", date, "error", err)
	} else if ok {
		return events, nil
	}

	events, err := s.next.ListEvents(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveEvents(ctx, date, events); err != nil {
		logger.Warn("CachedCalendarService:ListEvents:CacheSet:Error", "date", date, "error", err)
	}
	return events, nil
}

// ListEventsFresh bypasses the cached listing and refreshes it. Used where a
// stale listing would hide events, such as matching an event to delete.
func (s *cachedCalendarService) ListEventsFresh(ctx context.Context, date string) ([]entity.Event, error) {
	events, err := s.next.ListEvents(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveEvents(ctx, date, events); err != nil {
		logger.Warn("CachedCalendarService:ListEventsFresh:CacheSet:Error", "date", date, "error", err)
	}
	return events, nil
}

func (s *cachedCalendarService) CreateEvent(ctx context.Context, in entity.EventInput) (*entity.Event, error) {
	ev, err := s.next.CreateEvent(ctx, in)
	if err != nil {
		return nil, err
	}
	date := s.date(ev)
	s.invalidate(ctx, date)
	if err := s.repo.RememberEvent(ctx, ev.ID, date); err != nil {
		logger.Warn("CachedCalendarService:CreateEvent:Remember:Error", "event_id", ev.ID, "error", err)
	}
	return ev, nil
}

func (s *cachedCalendarService) DeleteEvent(ctx context.Context, eventID string) error {
	date, known, err := s.repo.EventDate(ctx, eventID)
	if err != nil {
		logger.Warn("CachedCalendarService:DeleteEvent:Lookup:Error", "event_id", eventID, "error", err)
	}
	if err := s.next.DeleteEvent(ctx, eventID); err != nil {
		return err
	}
	if known {
		s.invalidate(ctx, date)
	}
	return nil
}

func (s *cachedCalendarService) invalidate(ctx context.Context, date string) {
	if err := s.repo.InvalidateDate(ctx, date); err != nil {
		logger.Warn("CachedCalendarService:Invalidate:Error", "date", date, "error", err)
	}
}
