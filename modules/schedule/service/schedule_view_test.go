package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"schedule-agent/core/errors"
	calendarEntity "schedule-agent/modules/calendar/entity"
	"schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/entity"
)

func TestMergeSlot(t *testing.T) {
	t.Parallel()

	booked := &entity.Slot{Time: "09:00", Status: entity.SlotBooked, Name: "Ana", Email: "ana@x.com", Company: "Acme", Subject: "Kickoff"}
	blocked := &entity.Slot{Time: "09:00", Status: entity.SlotBlocked}
	available := &entity.Slot{Time: "09:00", Status: entity.SlotAvailable}
	external := &calendarEntity.Event{ID: "e1", Summary: "Board call", Attendees: []calendarEntity.Attendee{{Email: "cy@x.com", DisplayName: "Cy"}}}

	tests := []struct {
		name     string
		internal *entity.Slot
		external *calendarEntity.Event
		want     dto.SlotView
	}{
		{"none", nil, nil, dto.SlotView{Time: "09:00", Status: entity.SlotAvailable, Source: dto.SourceNone}},
		{"internal available", available, nil, dto.SlotView{Time: "09:00", Status: entity.SlotAvailable, Source: dto.SourceNone}},
		{"internal booked", booked, nil, dto.SlotView{Time: "09:00", Status: entity.SlotBooked, Name: "Ana", Email: "ana@x.com", Company: "Acme", Subject: "Kickoff", Source: dto.SourceInternal}},
		{"internal blocked", blocked, nil, dto.SlotView{Time: "09:00", Status: entity.SlotBlocked, Source: dto.SourceInternal}},
		{"external over available", available, external, dto.SlotView{Time: "09:00", Status: entity.SlotBooked, Name: "Cy", Subject: "Board call", Source: dto.SourceExternal, EventID: "e1"}},
		{"external over missing day", nil, external, dto.SlotView{Time: "09:00", Status: entity.SlotBooked, Name: "Cy", Subject: "Board call", Source: dto.SourceExternal, EventID: "e1"}},
		{"both booked keeps internal", booked, external, dto.SlotView{Time: "09:00", Status: entity.SlotBooked, Name: "Ana", Email: "ana@x.com", Company: "Acme", Subject: "Kickoff", Source: dto.SourceBoth, EventID: "e1"}},
	}
	for _, tt := range tests {
		if got := MergeSlot("09:00", tt.internal, tt.external); got != tt.want {
			t.Fatalf("%s: MergeSlot = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestGetDayMergesExternal(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if _, _, err := repo.UpsertDay(ctx, "2025-03-10", entity.StandardTimes); err != nil {
		t.Fatalf("UpsertDay: %v", err)
	}

	cal := &stubCalendar{events: []calendarEntity.Event{{
		ID:      "ext-1",
		Summary: "Dentist",
		Start:   time.Date(2025, 3, 10, 9, 0, 0, 0, testLoc),
		End:     time.Date(2025, 3, 10, 10, 0, 0, 0, testLoc),
	}}}
	svc := NewScheduleViewService(repo, cal, testLoc)

	view, err := svc.GetDay(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if !view.Exists || len(view.Slots) != len(entity.StandardTimes) {
		t.Fatalf("view = %+v", view)
	}
	nine := view.Slot("09:00")
	if nine.Status != entity.SlotBooked || nine.Subject != "Dentist" || nine.Source != dto.SourceExternal {
		t.Fatalf("09:00 = %+v", nine)
	}
	if ten := view.Slot("10:00"); ten.Status != entity.SlotAvailable || ten.Source != dto.SourceNone {
		t.Fatalf("10:00 = %+v", ten)
	}
}

func TestGetDayMissingDayDoesNotCreate(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewScheduleViewService(repo, nil, testLoc)
	ctx := context.Background()

	view, err := svc.GetDay(ctx, "2025-03-11")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if view.Exists {
		t.Fatalf("expected Exists=false")
	}
	for _, s := range view.Slots {
		if s.Status != entity.SlotAvailable {
			t.Fatalf("slot %s = %s", s.Time, s.Status)
		}
	}
	if day, _ := repo.FindDay(ctx, "2025-03-11"); day != nil {
		t.Fatalf("GetDay must not materialize the day")
	}
}

func TestGetDayCalendarFailureIsPartial(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if _, _, err := repo.UpsertDay(ctx, "2025-03-10", entity.StandardTimes); err != nil {
		t.Fatalf("UpsertDay: %v", err)
	}
	svc := NewScheduleViewService(repo, &stubCalendar{listErr: stderrors.New("google down")}, testLoc)

	view, err := svc.GetDay(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if view.ExternalError != "google down" || !view.Exists {
		t.Fatalf("view = %+v", view)
	}
}

func TestGetDayInvalidDate(t *testing.T) {
	svc := NewScheduleViewService(newTestRepository(t), nil, testLoc)

	_, err := svc.GetDay(context.Background(), "2025-13-01")
	if errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}
