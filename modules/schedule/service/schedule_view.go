package service

import (
	"context"
	"time"

	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	calendarEntity "schedule-agent/modules/calendar/entity"
	"schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/entity"
	"schedule-agent/modules/schedule/repository"
	"schedule-agent/modules/schedule/validator"
)

type ScheduleViewService struct {
	repo     repository.ScheduleRepository
	calendar CalendarMirror
	loc      *time.Location
}

// NewScheduleViewService builds the read side. calendar may be nil.
func NewScheduleViewService(repo repository.ScheduleRepository, calendar CalendarMirror, loc *time.Location) *ScheduleViewService {
	return &ScheduleViewService{repo: repo, calendar: calendar, loc: loc}
}

// MergeSlot combines the internal slot and the external event starting at
// standardTime. External occupancy wins; internal metadata wins when both
// sides say booked. Either argument may be nil.
func MergeSlot(standardTime string, internal *entity.Slot, external *calendarEntity.Event) dto.SlotView {
	view := dto.SlotView{Time: standardTime, Status: entity.SlotAvailable, Source: dto.SourceNone}

	internalOccupied := internal != nil && (internal.Status == entity.SlotBooked || internal.Status == entity.SlotBlocked)

	switch {
	case external != nil && (internal == nil || internal.Status != entity.SlotBooked):
		view.Status = entity.SlotBooked
		view.Subject = external.Summary
		view.Name = external.FirstAttendeeName()
		view.Source = dto.SourceExternal
		view.EventID = external.ID
	case external != nil:
		view.Status = entity.SlotBooked
		view.Name = internal.Name
		view.Email = internal.Email
		view.Company = internal.Company
		view.Subject = internal.Subject
		view.Source = dto.SourceBoth
		view.EventID = external.ID
	case internalOccupied:
		view.Status = internal.Status
		view.Name = internal.Name
		view.Email = internal.Email
		view.Company = internal.Company
		view.Subject = internal.Subject
		view.Source = dto.SourceInternal
	}
	return view
}

// GetDay returns the merged view of date. A missing day is not an error and
// is never created here. A failing calendar degrades to the internal view
// with ExternalError set.
func (s *ScheduleViewService) GetDay(ctx context.Context, date string) (*dto.DayView, error) {
	if result := validator.ValidateDate(date, s.loc); result.HasError() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, result.Error(), result)
	}

	day, err := s.repo.FindDay(ctx, date)
	if err != nil {
		logger.Error("ScheduleViewService:GetDay:FindDay:Error", "date", date, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load schedule", err)
	}

	view := &dto.DayView{Date: date, Exists: day != nil, Slots: make([]dto.SlotView, 0, len(entity.StandardTimes))}

	var events []calendarEntity.Event
	if s.calendar != nil {
		events, err = s.calendar.ListEvents(ctx, date)
		if err != nil {
			logger.Warn("ScheduleViewService:GetDay:ListEvents:Error", "date", date, "error", err)
			view.ExternalError = err.Error()
			events = nil
		}
	}

	for _, t := range entity.StandardTimes {
		view.Slots = append(view.Slots, MergeSlot(t, day.Slot(t), s.eventAt(events, date, t)))
	}
	return view, nil
}

// ListDays returns every materialized day from the internal store only.
func (s *ScheduleViewService) ListDays(ctx context.Context) ([]entity.Day, error) {
	days, err := s.repo.ListDays(ctx)
	if err != nil {
		logger.Error("ScheduleViewService:ListDays:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list schedules", err)
	}
	return days, nil
}

func (s *ScheduleViewService) eventAt(events []calendarEntity.Event, date, slotTime string) *calendarEntity.Event {
	for i := range events {
		if events[i].StartsAt(date, slotTime, s.loc) {
			return &events[i]
		}
	}
	return nil
}
