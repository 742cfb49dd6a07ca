package controller

import (
	"strconv"

	"schedule-agent/core/controller"
	"schedule-agent/core/errors"
	"schedule-agent/core/utils"
	"schedule-agent/modules/notification/dto"
	"schedule-agent/modules/notification/service"

	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	service *service.NotificationService
	controller.BaseController
}

func NewNotificationController(service *service.NotificationService) *NotificationController {
	return &NotificationController{
		service:        service,
		BaseController: controller.NewBaseController(),
	}
}

// ListNotifications returns the delivery log for one recipient
// GET /api/v1/notifications?recipient=ana@x.com&limit=20
func (c *NotificationController) ListNotifications(ctx echo.Context) error {
	recipient := ctx.QueryParam("recipient")
	if !utils.IsValidEmail(recipient) {
		return c.BadRequest(errors.ErrInvalidInput, "recipient must be a valid email",
			controller.NewValidationError("recipient", "invalid email"))
	}
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	items, err := c.service.ListByRecipient(ctx.Request().Context(), recipient, limit)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to get notifications")
	}

	return c.SuccessResponse(ctx, dto.NotificationListResponse{
		Recipient:     recipient,
		Notifications: items,
	}, "Notifications retrieved successfully")
}
