package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"schedule-agent/core/constants"
	"schedule-agent/core/database"
	calendarEntity "schedule-agent/modules/calendar/entity"
	"schedule-agent/modules/schedule/repository"
)

var testLoc = time.FixedZone("ICT", 7*3600)

func newTestRepository(t *testing.T) repository.ScheduleRepository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "schedule.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := database.InitDB(database.DatabaseConfig{Driver: constants.DatabaseDriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repository.NewScheduleRepository(db)
}

type stubCalendar struct {
	mu        sync.Mutex
	events    []calendarEntity.Event
	nextID    int
	listErr   error
	createErr error
	deleteErr error
	creates   int
	deletes   []string
	lists     int
}

func (c *stubCalendar) ListEvents(ctx context.Context, date string) ([]calendarEntity.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists++
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]calendarEntity.Event, 0, len(c.events))
	for _, ev := range c.events {
		if ev.Start.In(testLoc).Format("2006-01-02") == date {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *stubCalendar) CreateEvent(ctx context.Context, in calendarEntity.EventInput) (*calendarEntity.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates++
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.nextID++
	ev := calendarEntity.Event{
		ID:          fmt.Sprintf("evt-%d", c.nextID),
		Summary:     in.Summary,
		Description: in.Description,
		Start:       in.Start,
		End:         in.End,
		Attendees:   in.Attendees,
	}
	c.events = append(c.events, ev)
	return &ev, nil
}

func (c *stubCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, eventID)
	if c.deleteErr != nil {
		return c.deleteErr
	}
	kept := c.events[:0]
	for _, ev := range c.events {
		if ev.ID != eventID {
			kept = append(kept, ev)
		}
	}
	c.events = kept
	return nil
}

func (c *stubCalendar) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists + c.creates + len(c.deletes)
}

type sentEmail struct {
	to, subject, body string
}

type stubNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentEmail
}

func (n *stubNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{to, subject, body})
	return n.err
}
