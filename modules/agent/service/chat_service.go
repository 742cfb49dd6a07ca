package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"schedule-agent/core/constants"
	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/modules/agent/dto"
	"schedule-agent/modules/schedule/entity"
)

const systemPrompt = `You are a scheduling assistant. Today is %s (%s).
Meetings last %d minutes and start only at %s.
Use getScheduleByDate to look up free slots. To book or cancel, first call the
tool without checkout so the user sees a summary. Call it again with checkout
and confirmation set to true only after the user explicitly agrees.
Always ask for name, email and subject before booking.`

// ChatService lets a language model drive the dispatcher through tool calls.
type ChatService struct {
	llm        LLMClient
	dispatcher *Dispatcher
	loc        *time.Location
	now        func() time.Time
}

// NewChatService accepts a nil llm; Chat then fails with EXTERNAL_SYNC.
func NewChatService(llm LLMClient, dispatcher *Dispatcher, loc *time.Location) *ChatService {
	return &ChatService{llm: llm, dispatcher: dispatcher, loc: loc, now: time.Now}
}

func (s *ChatService) Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if s.llm == nil {
		return nil, errors.NewAppError(errors.ErrExternalSync, "language model is not configured", nil)
	}
	if len(req.Messages) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "messages are required", nil)
	}

	messages := make([]dto.LLMMessage, 0, len(req.Messages)+1)
	messages = append(messages, dto.LLMMessage{Role: "system", Content: s.systemPrompt()})
	for _, m := range req.Messages {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("unsupported message role %q", m.Role), nil)
		}
		messages = append(messages, dto.LLMMessage{Role: role, Content: m.Content})
	}

	reply, model, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	resp := &dto.ChatResponse{Model: model, Results: make([]dto.Envelope, 0, len(reply.ToolCalls))}
	for _, call := range reply.ToolCalls {
		env, err := s.dispatcher.Dispatch(ctx, intentFromToolCall(call))
		if err != nil {
			logger.Debug("ChatService:Chat:Dispatch", "action", call.Function.Name, "code", errors.CodeOf(err))
		}
		resp.Results = append(resp.Results, env)
	}

	resp.Reply = strings.TrimSpace(reply.Content)
	if resp.Reply == "" {
		parts := make([]string, 0, len(resp.Results))
		for _, env := range resp.Results {
			parts = append(parts, env.FunctionResult.Message)
		}
		resp.Reply = strings.Join(parts, "\n")
	}
	logger.Info("ChatService:Chat:Done", "model", model, "tool_calls", len(reply.ToolCalls))
	return resp, nil
}

func (s *ChatService) systemPrompt() string {
	today := s.now().In(s.loc)
	return fmt.Sprintf(systemPrompt, today.Format(constants.DateLayout), s.loc.String(), int(entity.SlotDuration.Minutes()), strings.Join(entity.StandardTimes, ", "))
}

// intentFromToolCall lifts the gate flags out of the tool arguments; the
// remaining arguments are passed through as-is.
func intentFromToolCall(call dto.LLMToolCall) dto.Intent {
	var flags struct {
		Checkout      bool   `json:"checkout"`
		Confirmation  bool   `json:"confirmation"`
		ProposalToken string `json:"proposalToken"`
	}
	raw, err := unwrapArguments(json.RawMessage(call.Function.Arguments))
	if err == nil {
		err = json.Unmarshal(raw, &flags)
	}
	if err != nil {
		// Flags stay false; Dispatch rejects the same arguments as INVALID_INPUT.
		logger.Debug("ChatService:IntentFromToolCall:Arguments", "action", call.Function.Name, "error", err)
	}
	return dto.Intent{
		CallID:        call.ID,
		Action:        call.Function.Name,
		Arguments:     json.RawMessage(call.Function.Arguments),
		Checkout:      flags.Checkout,
		Confirmation:  flags.Confirmation,
		ProposalToken: flags.ProposalToken,
	}
}
