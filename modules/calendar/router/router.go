package router

import (
	"schedule-agent/modules/calendar/controller"

	"github.com/labstack/echo/v4"
)

type CalendarRouter struct {
	controller *controller.CalendarController
}

func NewCalendarRouter(controller *controller.CalendarController) *CalendarRouter {
	return &CalendarRouter{
		controller: controller,
	}
}

func (r *CalendarRouter) Setup(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	calendarRoutes := v1.Group("/calendar")
	calendarRoutes.GET("/events/:date", r.controller.ListEvents)
}
