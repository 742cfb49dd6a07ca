package service

import (
	"context"

	calendarEntity "schedule-agent/modules/calendar/entity"
)

// CalendarMirror is the external calendar as the schedule sees it.
type CalendarMirror interface {
	ListEvents(ctx context.Context, date string) ([]calendarEntity.Event, error)
	CreateEvent(ctx context.Context, in calendarEntity.EventInput) (*calendarEntity.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// freshEventLister is implemented by calendar mirrors that cache listings.
type freshEventLister interface {
	ListEventsFresh(ctx context.Context, date string) ([]calendarEntity.Event, error)
}

// Notifier sends one plain-text email.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
