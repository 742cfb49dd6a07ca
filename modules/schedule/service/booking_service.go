package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"schedule-agent/core/constants"
	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	calendarEntity "schedule-agent/modules/calendar/entity"
	"schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/entity"
	"schedule-agent/modules/schedule/repository"
	"schedule-agent/modules/schedule/validator"
)

const releaseAttempts = 3

// BookingService applies book and cancel transitions. The internal store
// is committed first; calendar and email are best-effort afterwards and
// their failures are attached to the result, never rolled back.
type BookingService struct {
	repo     repository.ScheduleRepository
	calendar CalendarMirror
	notifier Notifier
	loc      *time.Location
	timeout  time.Duration
}

// NewBookingService builds the write side. calendar and notifier may be nil.
func NewBookingService(repo repository.ScheduleRepository, calendar CalendarMirror, notifier Notifier, loc *time.Location) *BookingService {
	return &BookingService{
		repo:     repo,
		calendar: calendar,
		notifier: notifier,
		loc:      loc,
		timeout:  constants.ExternalCallTimeout,
	}
}

func (s *BookingService) Book(ctx context.Context, req dto.BookSlotRequest) (*dto.BookingResult, error) {
	if result := validator.ValidateBookSlotRequest(&req, s.loc); result.HasError() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, result.Error(), result)
	}
	booking := entity.Booking{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Company: strings.TrimSpace(req.Company),
		Subject: strings.TrimSpace(req.Subject),
	}

	slot, err := s.repo.BookSlot(ctx, req.Date, req.Time, booking)
	switch {
	case stderrors.Is(err, repository.ErrSlotNotFound):
		return nil, notFound(req.Date, req.Time)
	case stderrors.Is(err, repository.ErrSlotUnavailable):
		if slot != nil && slot.Status == entity.SlotBlocked {
			return nil, errors.NewAppError(errors.ErrConflict, "slot is blocked", err)
		}
		return nil, errors.NewAppError(errors.ErrConflict, "slot already booked", err)
	case err != nil:
		logger.Error("BookingService:Book:BookSlot:Error", "date", req.Date, "time", req.Time, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to book slot", err)
	}

	logger.Info("BookingService:Book:Committed", "date", req.Date, "time", req.Time, "email", booking.Email)
	result := &dto.BookingResult{Slot: slot, Changed: true}
	result.AddEffect(dto.TargetInternal, dto.EffectOK, "")

	// Side effects run to completion even if the caller goes away.
	sideCtx := context.WithoutCancel(ctx)
	if s.createEvent(sideCtx, req.Date, req.Time, booking, result) {
		s.notify(sideCtx, booking.Email,
			fmt.Sprintf("Booking confirmed: %s", booking.Subject),
			s.bookedBody(req.Date, req.Time, booking),
			result,
		)
	} else {
		result.AddEffect(dto.TargetEmail, dto.EffectSkipped, "calendar event not created")
	}

	result.Day = s.reloadDay(sideCtx, req.Date)
	return result, nil
}

// Cancel releases a booked slot. Cancelling an available slot is a no-op
// with Changed=false and no external calls.
func (s *BookingService) Cancel(ctx context.Context, req dto.CancelSlotRequest) (*dto.BookingResult, error) {
	if result := validator.ValidateSlotRef(req.Date, req.Time, s.loc); result.HasError() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, result.Error(), result)
	}

	var (
		prior    entity.Booking
		released *entity.Slot
	)
	for attempt := 1; attempt <= releaseAttempts && released == nil; attempt++ {
		current, err := s.repo.FindSlot(ctx, req.Date, req.Time)
		if err != nil {
			logger.Error("BookingService:Cancel:FindSlot:Error", "date", req.Date, "time", req.Time, "error", err)
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load slot", err)
		}
		if current == nil {
			return nil, notFound(req.Date, req.Time)
		}

		switch current.Status {
		case entity.SlotAvailable:
			result := &dto.BookingResult{Slot: current, Changed: false}
			result.AddEffect(dto.TargetInternal, dto.EffectSkipped, "slot already available")
			result.Day = s.reloadDay(ctx, req.Date)
			return result, nil
		case entity.SlotBlocked:
			return nil, errors.NewAppError(errors.ErrConflict, "slot is blocked", nil)
		}

		prior = current.Booking()
		released, err = s.repo.ReleaseSlot(ctx, req.Date, req.Time, prior)
		switch {
		case err == nil:
		case stderrors.Is(err, repository.ErrBookingChanged):
			logger.Warn("BookingService:Cancel:LostRace", "date", req.Date, "time", req.Time, "attempt", attempt)
			released = nil
		case stderrors.Is(err, repository.ErrSlotNotFound):
			return nil, notFound(req.Date, req.Time)
		default:
			logger.Error("BookingService:Cancel:ReleaseSlot:Error", "date", req.Date, "time", req.Time, "error", err)
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to cancel booking", err)
		}
	}
	if released == nil {
		return nil, errors.NewAppError(errors.ErrConflict, "slot changed while cancelling, try again", nil)
	}

	logger.Info("BookingService:Cancel:Committed", "date", req.Date, "time", req.Time, "email", prior.Email)
	result := &dto.BookingResult{Slot: released, Changed: true}
	result.AddEffect(dto.TargetInternal, dto.EffectOK, "")

	sideCtx := context.WithoutCancel(ctx)
	s.deleteEvent(sideCtx, req.Date, req.Time, prior, result)
	s.notify(sideCtx, prior.Email,
		fmt.Sprintf("Booking cancelled: %s", prior.Subject),
		s.cancelledBody(req.Date, req.Time, prior),
		result,
	)

	result.Day = s.reloadDay(sideCtx, req.Date)
	return result, nil
}

// EnsureDay materializes date with every standard slot. Existing slots are
// left untouched.
func (s *BookingService) EnsureDay(ctx context.Context, date string) (*dto.MaterializeResult, error) {
	if result := validator.ValidateDate(date, s.loc); result.HasError() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, result.Error(), result)
	}
	day, created, err := s.repo.UpsertDay(ctx, date, entity.StandardTimes)
	if err != nil {
		logger.Error("BookingService:EnsureDay:Error", "date", date, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create schedule", err)
	}
	if created {
		logger.Info("BookingService:EnsureDay:Created", "date", date)
	}
	return &dto.MaterializeResult{Day: day, Created: created}, nil
}

// EnsureHorizon materializes days consecutive dates starting at from.
func (s *BookingService) EnsureHorizon(ctx context.Context, from time.Time, days int) (*dto.HorizonResult, error) {
	start := from.In(s.loc)
	result := &dto.HorizonResult{From: start.Format(constants.DateLayout), Days: days}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(constants.DateLayout)
		res, err := s.EnsureDay(ctx, date)
		if err != nil {
			return result, err
		}
		if res.Created {
			result.Created++
		}
		result.To = date
	}
	logger.Info("BookingService:EnsureHorizon:Done", "from", result.From, "to", result.To, "created", result.Created)
	return result, nil
}

// createEvent reports whether the confirmation email may follow: the event
// was created, or no calendar is configured.
func (s *BookingService) createEvent(ctx context.Context, date, slotTime string, booking entity.Booking, result *dto.BookingResult) bool {
	if s.calendar == nil {
		result.AddEffect(dto.TargetCalendar, dto.EffectSkipped, "calendar not configured")
		return true
	}

	start, err := entity.SlotStart(date, slotTime, s.loc)
	if err != nil {
		s.calendarFailed(result, err)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ev, err := s.calendar.CreateEvent(ctx, calendarEntity.EventInput{
		Summary:     booking.Subject,
		Description: eventDescription(booking),
		Start:       start,
		End:         start.Add(entity.SlotDuration),
		Attendees:   []calendarEntity.Attendee{{Email: booking.Email, DisplayName: booking.Name}},
	})
	if err != nil {
		logger.Warn("BookingService:CreateEvent:Error", "date", date, "time", slotTime, "error", err)
		s.calendarFailed(result, err)
		return false
	}
	result.EventID = ev.ID
	result.AddEffect(dto.TargetCalendar, dto.EffectOK, ev.ID)
	return true
}

// deleteEvent removes the external events at the slot start whose attendee
// and summary match the released booking.
func (s *BookingService) deleteEvent(ctx context.Context, date, slotTime string, prior entity.Booking, result *dto.BookingResult) {
	if s.calendar == nil {
		result.AddEffect(dto.TargetCalendar, dto.EffectSkipped, "calendar not configured")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	list := s.calendar.ListEvents
	if fresh, ok := s.calendar.(freshEventLister); ok {
		list = fresh.ListEventsFresh
	}
	events, err := list(ctx, date)
	if err != nil {
		logger.Warn("BookingService:DeleteEvent:ListEvents:Error", "date", date, "error", err)
		s.calendarFailed(result, err)
		return
	}

	var matched []string
	for i := range events {
		ev := &events[i]
		if ev.StartsAt(date, slotTime, s.loc) && ev.HasAttendee(prior.Email) &&
			strings.TrimSpace(ev.Summary) == strings.TrimSpace(prior.Subject) {
			matched = append(matched, ev.ID)
		}
	}
	if len(matched) == 0 {
		result.AddEffect(dto.TargetCalendar, dto.EffectSkipped, "no matching calendar event")
		return
	}

	for _, id := range matched {
		if err := s.calendar.DeleteEvent(ctx, id); err != nil {
			logger.Warn("BookingService:DeleteEvent:Error", "event_id", id, "error", err)
			s.calendarFailed(result, err)
			return
		}
	}
	result.EventID = matched[0]
	result.AddEffect(dto.TargetCalendar, dto.EffectOK, strings.Join(matched, ","))
}

func (s *BookingService) notify(ctx context.Context, to, subject, body string, result *dto.BookingResult) {
	if s.notifier == nil {
		result.AddEffect(dto.TargetEmail, dto.EffectSkipped, "email not configured")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.notifier.Send(ctx, to, subject, body); err != nil {
		logger.Warn("BookingService:Notify:Error", "to", to, "error", err)
		result.EmailError = err.Error()
		result.AddEffect(dto.TargetEmail, dto.EffectFailed, err.Error())
		return
	}
	result.AddEffect(dto.TargetEmail, dto.EffectOK, to)
}

func (s *BookingService) calendarFailed(result *dto.BookingResult, err error) {
	result.GoogleCalendarError = err.Error()
	result.AddEffect(dto.TargetCalendar, dto.EffectFailed, err.Error())
}

func (s *BookingService) reloadDay(ctx context.Context, date string) *entity.Day {
	day, err := s.repo.FindDay(ctx, date)
	if err != nil {
		logger.Warn("BookingService:ReloadDay:Error", "date", date, "error", err)
		return nil
	}
	return day
}

func (s *BookingService) bookedBody(date, slotTime string, b entity.Booking) string {
	return fmt.Sprintf("Hello %s,\n\nYour meeting \"%s\" is booked for %s at %s (%s) and lasts one hour.\n\nSee you then.",
		b.Name, b.Subject, date, slotTime, s.loc.String())
}

func (s *BookingService) cancelledBody(date, slotTime string, b entity.Booking) string {
	return fmt.Sprintf("Hello %s,\n\nYour meeting \"%s\" on %s at %s (%s) has been cancelled.",
		b.Name, b.Subject, date, slotTime, s.loc.String())
}

func eventDescription(b entity.Booking) string {
	lines := []string{"Name: " + b.Name, "Email: " + b.Email}
	if b.Company != "" {
		lines = append(lines, "Company: "+b.Company)
	}
	return strings.Join(lines, "\n")
}

func notFound(date, slotTime string) error {
	return errors.NewAppError(errors.ErrNotFound, fmt.Sprintf("no schedule slot for %s %s", date, slotTime), nil)
}
