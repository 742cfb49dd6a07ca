package controller

import (
	"net/http"

	"schedule-agent/core/controller"
	"schedule-agent/core/errors"
	"schedule-agent/modules/agent/dto"
	"schedule-agent/modules/agent/service"

	"github.com/labstack/echo/v4"
)

type AgentController struct {
	controller.BaseController
	dispatcher *service.Dispatcher
	chat       *service.ChatService
}

func NewAgentController(dispatcher *service.Dispatcher, chat *service.ChatService) *AgentController {
	return &AgentController{
		BaseController: controller.NewBaseController(),
		dispatcher:     dispatcher,
		chat:           chat,
	}
}

// Dispatch POST /api/v1/schedule/agent
func (c *AgentController) Dispatch(ctx echo.Context) error {
	req := new(dto.DispatchRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}

	switch {
	case req.Intent != nil && len(req.Intents) > 0:
		return c.BadRequest(errors.ErrInvalidRequestData, "Send either intent or intents, not both")
	case req.Intent != nil:
		env, err := c.dispatcher.Dispatch(ctx.Request().Context(), *req.Intent)
		return ctx.JSON(intentStatus(err), env)
	case len(req.Intents) > 0:
		results := c.dispatcher.DispatchAll(ctx.Request().Context(), req.Intents)
		return ctx.JSON(http.StatusOK, dto.DispatchResponse{Results: results})
	default:
		return c.BadRequest(errors.ErrInvalidRequestData, "intent is required")
	}
}

// Chat POST /api/v1/schedule/agent/chat
func (c *AgentController) Chat(ctx echo.Context) error {
	req := new(dto.ChatRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}
	resp, err := c.chat.Chat(ctx.Request().Context(), *req)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func intentStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return controller.StatusOf(errors.CodeOf(err))
}
