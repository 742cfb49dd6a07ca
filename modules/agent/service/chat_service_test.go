package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"schedule-agent/core/errors"
	"schedule-agent/modules/agent/dto"
)

type stubLLM struct {
	reply    dto.LLMMessage
	err      error
	received []dto.LLMMessage
}

func (s *stubLLM) Complete(ctx context.Context, messages []dto.LLMMessage) (*dto.LLMMessage, string, error) {
	s.received = messages
	if s.err != nil {
		return nil, "", s.err
	}
	return &s.reply, "stub-model", nil
}

func toolCall(id, name, args string) dto.LLMToolCall {
	return dto.LLMToolCall{ID: id, Type: "function", Function: dto.LLMFunctionCall{Name: name, Arguments: args}}
}

func TestChatDispatchesToolCalls(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	llm := &stubLLM{reply: dto.LLMMessage{Role: "assistant", ToolCalls: []dto.LLMToolCall{
		toolCall("call_1", dto.ActionGetScheduleByDate, `{"date":"2025-03-10"}`),
		toolCall("call_2", dto.ActionBookSlot, `{"date":"2025-03-10","time":"09:00","name":"Ana","email":"ana@example.com","subject":"Kickoff","checkout":true,"confirmation":true}`),
	}}}
	svc := NewChatService(llm, newTestDispatcher(stub, ""), testLoc)
	svc.now = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, testLoc) }

	resp, err := svc.Chat(context.Background(), dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "Book 9am for Ana"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].CallID != "call_1" || resp.Results[1].State != dto.StateApplied {
		t.Fatalf("unexpected results %+v", resp.Results)
	}
	if stub.books != 1 {
		t.Fatalf("expected one booking, got %d", stub.books)
	}
	if !strings.Contains(resp.Reply, "Booked 09:00") {
		t.Fatalf("reply should fall back to result messages: %q", resp.Reply)
	}
	if llm.received[0].Role != "system" || !strings.Contains(llm.received[0].Content, "2025-03-09") {
		t.Fatalf("system prompt should carry today's date: %+v", llm.received[0])
	}
}

func TestChatProposalNeedsConfirmation(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	llm := &stubLLM{reply: dto.LLMMessage{Role: "assistant", Content: "Shall I book it?", ToolCalls: []dto.LLMToolCall{
		toolCall("call_1", dto.ActionBookSlot, `{"date":"2025-03-10","time":"09:00","name":"Ana","email":"ana@example.com","subject":"Kickoff"}`),
	}}}
	svc := NewChatService(llm, newTestDispatcher(stub, ""), testLoc)

	resp, err := svc.Chat(context.Background(), dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "Book 9am"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Reply != "Shall I book it?" || resp.Results[0].State != dto.StateProposed {
		t.Fatalf("unexpected response %+v", resp)
	}
	if stub.books != 0 {
		t.Fatalf("proposal must not book")
	}
}

func TestChatErrors(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(newStubSchedule(), "")

	if _, err := NewChatService(nil, d, testLoc).Chat(context.Background(), dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}}}); errors.CodeOf(err) != errors.ErrExternalSync {
		t.Fatalf("missing model should be EXTERNAL_SYNC, got %v", err)
	}

	svc := NewChatService(&stubLLM{}, d, testLoc)
	if _, err := svc.Chat(context.Background(), dto.ChatRequest{}); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("empty messages should be INVALID_INPUT, got %v", err)
	}
	if _, err := svc.Chat(context.Background(), dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "system", Content: "x"}}}); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("system role should be rejected, got %v", err)
	}

	failing := NewChatService(&stubLLM{err: errors.NewAppError(errors.ErrExternalSync, "down", nil)}, d, testLoc)
	if _, err := failing.Chat(context.Background(), dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}}}); errors.CodeOf(err) != errors.ErrExternalSync {
		t.Fatalf("expected EXTERNAL_SYNC, got %v", err)
	}
}

func TestChatToolCallArguments(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	llm := &stubLLM{reply: dto.LLMMessage{Role: "assistant", ToolCalls: []dto.LLMToolCall{
		toolCall("call_1", dto.ActionBookSlot, `{"date":"2025-03-10","time":"09:00","checkout":true,"confirmation":true`),
		toolCall("call_2", dto.ActionBookSlot, `"{\"date\":\"2025-03-10\",\"time\":\"09:00\",\"name\":\"Ana\",\"email\":\"ana@example.com\",\"subject\":\"Kickoff\",\"checkout\":true,\"confirmation\":true}"`),
	}}}
	svc := NewChatService(llm, newTestDispatcher(stub, ""), testLoc)

	resp, err := svc.Chat(context.Background(), dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "Book 9am"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("unexpected results %+v", resp.Results)
	}
	if bad := resp.Results[0]; bad.Error == nil || bad.Error.Code != errors.ErrInvalidInput {
		t.Fatalf("malformed arguments should be INVALID_INPUT: %+v", bad)
	}
	if resp.Results[1].State != dto.StateApplied {
		t.Fatalf("string-encoded arguments should keep their flags: %+v", resp.Results[1])
	}
	if stub.books != 1 {
		t.Fatalf("expected one booking, got %d", stub.books)
	}
}
