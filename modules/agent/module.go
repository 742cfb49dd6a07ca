package agent

import (
	"context"

	"schedule-agent/core/config"
	"schedule-agent/modules/agent/controller"
	"schedule-agent/modules/agent/router"
	"schedule-agent/modules/agent/service"

	"github.com/labstack/echo/v4"
)

// Init wires the agent endpoints. Without an LLM config the chat endpoint
// answers EXTERNAL_SYNC.
func Init(ctx context.Context, g *echo.Group, cfg *config.Config, view service.ScheduleReader, booking service.SlotBooker) *service.Dispatcher {
	loc := cfg.Location()
	dispatcher := service.NewDispatcher(view, booking, loc, []byte(cfg.Security.JWTSecret))

	var llm service.LLMClient
	if cfg.LLMEnabled() {
		llm = service.NewOpenAIClient(ctx, service.OpenAIConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
	}
	chat := service.NewChatService(llm, dispatcher, loc)

	router.NewAgentRouter(controller.NewAgentController(dispatcher, chat)).Register(g)
	return dispatcher
}
