package repository

import (
	"context"
	"time"

	"schedule-agent/core/cache"
	"schedule-agent/core/constants"
	"schedule-agent/modules/calendar/entity"
)

// CalendarRepository keeps short-lived copies of external event listings.
type CalendarRepository interface {
	GetEvents(ctx context.Context, date string) ([]entity.Event, bool, error)
	SaveEvents(ctx context.Context, date string, events []entity.Event) error
	// EventDate returns the date under which eventID was last listed or created.
	EventDate(ctx context.Context, eventID string) (string, bool, error)
	RememberEvent(ctx context.Context, eventID, date string) error
	InvalidateDate(ctx context.Context, date string) error
}

type calendarRepository struct {
	cache      cache.Cache
	calendarID string
	ttl        time.Duration
}

func NewCalendarRepository(c cache.Cache, calendarID string, ttl time.Duration) CalendarRepository {
	if ttl <= 0 {
		ttl = constants.CalendarEventsCacheTTL
	}
	return &calendarRepository{cache: c, calendarID: calendarID, ttl: ttl}
}

func (r *calendarRepository) dateKey(date string) string {
	return constants.RedisKeyCalendarEvents + r.calendarID + ":" + date
}

func (r *calendarRepository) eventKey(eventID string) string {
	return constants.RedisKeyCalendarEvents + r.calendarID + ":event:" + eventID
}

func (r *calendarRepository) GetEvents(ctx context.Context, date string) ([]entity.Event, bool, error) {
	var events []entity.Event
	ok, err := r.cache.Get(ctx, r.dateKey(date), &events)
	if err != nil || !ok {
		return nil, false, err
	}
	return events, true, nil
}

func (r *calendarRepository) SaveEvents(ctx context.Context, date string, events []entity.Event) error {
	if err := r.cache.Set(ctx, r.dateKey(date), events, r.ttl); err != nil {
		return err
	}
	for _, ev := range events {
		if err := r.RememberEvent(ctx, ev.ID, date); err != nil {
			return err
		}
	}
	return nil
}

func (r *calendarRepository) EventDate(ctx context.Context, eventID string) (string, bool, error) {
	var date string
	ok, err := r.cache.Get(ctx, r.eventKey(eventID), &date)
	if err != nil || !ok {
		return "", false, err
	}
	return date, true, nil
}

// RememberEvent keeps the id to date index a little longer than the listing
// so a delete can still find the listing to invalidate.
func (r *calendarRepository) RememberEvent(ctx context.Context, eventID, date string) error {
	return r.cache.Set(ctx, r.eventKey(eventID), date, 2*r.ttl)
}

func (r *calendarRepository) InvalidateDate(ctx context.Context, date string) error {
	return r.cache.Del(ctx, r.dateKey(date))
}
