package controller

import (
	"schedule-agent/core/controller"
	"schedule-agent/core/errors"
	"schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/service"

	"github.com/labstack/echo/v4"
)

type ScheduleController struct {
	controller.BaseController
	view    *service.ScheduleViewService
	booking *service.BookingService
}

func NewScheduleController(view *service.ScheduleViewService, booking *service.BookingService) *ScheduleController {
	return &ScheduleController{
		BaseController: controller.NewBaseController(),
		view:           view,
		booking:        booking,
	}
}

// ListDays GET /api/v1/schedule
func (c *ScheduleController) ListDays(ctx echo.Context) error {
	days, err := c.view.ListDays(ctx.Request().Context())
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, days, "Schedules retrieved successfully")
}

// GetDay GET /api/v1/schedule/:date
func (c *ScheduleController) GetDay(ctx echo.Context) error {
	view, err := c.view.GetDay(ctx.Request().Context(), ctx.Param("date"))
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, view, "Schedule retrieved successfully")
}

// MaterializeDay POST /api/v1/schedule/days
func (c *ScheduleController) MaterializeDay(ctx echo.Context) error {
	req := new(dto.MaterializeDayRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}
	result, err := c.booking.EnsureDay(ctx.Request().Context(), req.Date)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, result, "Schedule ready")
}

// Book POST /api/v1/schedule/book
func (c *ScheduleController) Book(ctx echo.Context) error {
	req := new(dto.BookSlotRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}
	result, err := c.booking.Book(ctx.Request().Context(), *req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, result, "Slot booked successfully")
}

// Cancel POST /api/v1/schedule/cancel
func (c *ScheduleController) Cancel(ctx echo.Context) error {
	req := new(dto.CancelSlotRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}
	result, err := c.booking.Cancel(ctx.Request().Context(), *req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	msg := "Booking cancelled successfully"
	if !result.Changed {
		msg = "Slot already available"
	}
	return c.SuccessResponse(ctx, result, msg)
}
