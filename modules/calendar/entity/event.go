package entity

import (
	"strings"
	"time"
)

type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// Event is an event on the external calendar.
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	AllDay      bool       `json:"allDay,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

// HasAttendee compares emails case-insensitively.
func (e *Event) HasAttendee(email string) bool {
	for _, a := range e.Attendees {
		if strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}

// FirstAttendeeName returns the display name of the first attendee that has one.
func (e *Event) FirstAttendeeName() string {
	for _, a := range e.Attendees {
		if a.DisplayName != "" {
			return a.DisplayName
		}
	}
	return ""
}

// StartsAt reports whether the event starts at clock (HH:mm) on date
// (YYYY-MM-DD) when viewed in loc.
func (e *Event) StartsAt(date, clock string, loc *time.Location) bool {
	if e.AllDay || e.Start.IsZero() {
		return false
	}
	local := e.Start.In(loc)
	return local.Format("2006-01-02") == date && local.Format("15:04") == clock
}

type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []Attendee
}
