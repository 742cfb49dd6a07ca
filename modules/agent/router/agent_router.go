package router

import (
	"schedule-agent/modules/agent/controller"

	"github.com/labstack/echo/v4"
)

type AgentRouter struct {
	controller *controller.AgentController
}

func NewAgentRouter(controller *controller.AgentController) *AgentRouter {
	return &AgentRouter{controller: controller}
}

func (r *AgentRouter) Register(g *echo.Group) {
	agent := g.Group("/schedule/agent")
	agent.POST("", r.controller.Dispatch)
	agent.POST("/chat", r.controller.Chat)
}
