package calendar

import (
	"context"

	"schedule-agent/core/cache"
	"schedule-agent/core/config"
	"schedule-agent/core/logger"
	"schedule-agent/modules/calendar/controller"
	"schedule-agent/modules/calendar/entity"
	"schedule-agent/modules/calendar/repository"
	"schedule-agent/modules/calendar/router"
	"schedule-agent/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

// Init wires the Google Calendar mirror. It returns nil when no Google
// credentials are configured; callers treat that as "calendar disabled".
func Init(ctx context.Context, e *echo.Echo, cfg *config.Config, c cache.Cache) service.CalendarService {
	if !cfg.CalendarEnabled() {
		logger.Warn("Calendar:Init:Disabled", "reason", "google_api.client_id or google_api.refresh_token not set")
		return nil
	}

	loc := cfg.Location()
	google := service.NewGoogleCalendarService(ctx, service.GoogleCalendarConfig{
		ClientID:          cfg.GoogleAPI.ClientID,
		ClientSecret:      cfg.GoogleAPI.ClientSecret,
		RefreshToken:      cfg.GoogleAPI.RefreshToken,
		CalendarID:        cfg.GoogleAPI.CalendarID,
		Timeout:           cfg.GoogleAPI.Timeout,
		RequestsPerSecond: cfg.GoogleAPI.RequestsPerSecond,
		Location:          loc,
	})

	repo := repository.NewCalendarRepository(c, cfg.GoogleAPI.CalendarID, 0)
	calendarService := service.NewCachedCalendarService(google, repo, func(ev *entity.Event) string {
		return ev.Start.In(loc).Format("2006-01-02")
	})

	router.NewCalendarRouter(controller.NewCalendarController(calendarService, loc)).Setup(e)
	logger.Info("Calendar:Init:Enabled", "calendar_id", cfg.GoogleAPI.CalendarID)
	return calendarService
}
