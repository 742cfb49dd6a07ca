package service

import (
	"context"
	"sync"
	"time"

	"schedule-agent/core/errors"
	"schedule-agent/modules/agent/dto"
	scheduleDto "schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/entity"
)

var testLoc = time.FixedZone("ICT", 7*3600)

type stubSchedule struct {
	mu       sync.Mutex
	booked   map[string]scheduleDto.BookSlotRequest
	books    int
	cancels  int
	bookErr  error
	getCalls int
}

func newStubSchedule() *stubSchedule {
	return &stubSchedule{booked: make(map[string]scheduleDto.BookSlotRequest)}
}

func (s *stubSchedule) GetDay(ctx context.Context, date string) (*scheduleDto.DayView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if _, err := entity.ParseDate(date, testLoc); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "date must be YYYY-MM-DD", err)
	}
	view := &scheduleDto.DayView{Date: date, Exists: true}
	for _, t := range entity.StandardTimes {
		slot := scheduleDto.SlotView{Time: t, Status: entity.SlotAvailable, Source: scheduleDto.SourceInternal}
		if b, ok := s.booked[date+" "+t]; ok {
			slot.Status = entity.SlotBooked
			slot.Name = b.Name
			slot.Email = b.Email
		}
		view.Slots = append(view.Slots, slot)
	}
	return view, nil
}

func (s *stubSchedule) Book(ctx context.Context, req scheduleDto.BookSlotRequest) (*scheduleDto.BookingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books++
	if s.bookErr != nil {
		return nil, s.bookErr
	}
	key := req.Date + " " + req.Time
	if _, ok := s.booked[key]; ok {
		return nil, errors.NewAppError(errors.ErrConflict, "slot is not available", nil)
	}
	s.booked[key] = req
	return &scheduleDto.BookingResult{Changed: true, Slot: &entity.Slot{Time: req.Time, Status: entity.SlotBooked}}, nil
}

func (s *stubSchedule) Cancel(ctx context.Context, req scheduleDto.CancelSlotRequest) (*scheduleDto.BookingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	key := req.Date + " " + req.Time
	_, ok := s.booked[key]
	delete(s.booked, key)
	return &scheduleDto.BookingResult{Changed: ok, Slot: &entity.Slot{Time: req.Time, Status: entity.SlotAvailable}}, nil
}

func bookIntent(checkout, confirmation bool) dto.Intent {
	return dto.Intent{
		Action:       dto.ActionBookSlot,
		Arguments:    []byte(`{"date":"2025-03-10","time":"09:00","name":"Ana","email":"ana@example.com","company":"Acme","subject":"Kickoff"}`),
		Checkout:     checkout,
		Confirmation: confirmation,
	}
}
