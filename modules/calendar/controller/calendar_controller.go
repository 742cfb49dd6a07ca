package controller

import (
	"time"

	"schedule-agent/core/controller"
	"schedule-agent/core/errors"
	"schedule-agent/modules/calendar/dto"
	"schedule-agent/modules/calendar/service"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	controller.BaseController
	service service.CalendarService
	loc     *time.Location
}

func NewCalendarController(service service.CalendarService, loc *time.Location) *CalendarController {
	return &CalendarController{
		BaseController: controller.NewBaseController(),
		service:        service,
		loc:            loc,
	}
}

// ListEvents returns the raw external events of one date
// GET /api/v1/calendar/events/:date
func (c *CalendarController) ListEvents(ctx echo.Context) error {
	date := ctx.Param("date")
	if _, err := time.ParseInLocation("2006-01-02", date, c.loc); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}

	events, err := c.service.ListEvents(ctx.Request().Context(), date)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}

	resp := dto.EventListResponse{Date: date, Events: make([]dto.EventResponse, 0, len(events))}
	for _, ev := range events {
		item := dto.EventResponse{
			ID:      ev.ID,
			Summary: ev.Summary,
			Start:   ev.Start.In(c.loc).Format(time.RFC3339),
			End:     ev.End.In(c.loc).Format(time.RFC3339),
			AllDay:  ev.AllDay,
		}
		for _, a := range ev.Attendees {
			item.Attendees = append(item.Attendees, a.Email)
		}
		resp.Events = append(resp.Events, item)
	}
	return c.SuccessResponse(ctx, resp, "Calendar events retrieved successfully")
}
