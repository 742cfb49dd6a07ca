package router

import (
	"schedule-agent/modules/schedule/controller"

	"github.com/labstack/echo/v4"
)

type ScheduleRouter struct {
	controller *controller.ScheduleController
}

func NewScheduleRouter(controller *controller.ScheduleController) *ScheduleRouter {
	return &ScheduleRouter{controller: controller}
}

func (r *ScheduleRouter) Register(g *echo.Group) {
	schedule := g.Group("/schedule")
	schedule.GET("", r.controller.ListDays)
	schedule.GET("/:date", r.controller.GetDay)
	schedule.POST("/days", r.controller.MaterializeDay)
	schedule.POST("/book", r.controller.Book)
	schedule.POST("/cancel", r.controller.Cancel)
}
