package schedule

import (
	"schedule-agent/core/config"
	"schedule-agent/core/database"
	"schedule-agent/modules/schedule/controller"
	"schedule-agent/modules/schedule/repository"
	"schedule-agent/modules/schedule/router"
	"schedule-agent/modules/schedule/service"

	"github.com/labstack/echo/v4"
)

type Services struct {
	View    *service.ScheduleViewService
	Booking *service.BookingService
}

// Init wires the schedule module. calendar and notifier may be nil.
func Init(g *echo.Group, db database.Database, cfg *config.Config, calendar service.CalendarMirror, notifier service.Notifier) *Services {
	loc := cfg.Location()
	repo := repository.NewScheduleRepository(db)
	view := service.NewScheduleViewService(repo, calendar, loc)
	booking := service.NewBookingService(repo, calendar, notifier, loc)

	router.NewScheduleRouter(controller.NewScheduleController(view, booking)).Register(g)

	return &Services{View: view, Booking: booking}
}
