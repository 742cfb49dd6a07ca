package dto

import (
	"encoding/json"

	"schedule-agent/core/errors"
)

// Agent actions, also the tool names offered to the language model.
const (
	ActionBookSlot          = "bookSlot"
	ActionGetScheduleByDate = "getScheduleByDate"
	ActionCancelBooking     = "cancelBooking"
)

// Function result types.
const (
	ResultBooking      = "booking"
	ResultSchedule     = "schedule"
	ResultCancellation = "cancellation"
)

// ConfirmationState tracks a mutating intent through the two-step gate.
type ConfirmationState string

const (
	StateProposed  ConfirmationState = "proposed"
	StateConfirmed ConfirmationState = "confirmed"
	StateApplied   ConfirmationState = "applied"
)

// Intent is one structured action request from the agent. It is never persisted.
type Intent struct {
	CallID        string          `json:"callId,omitempty"`
	Action        string          `json:"action"`
	Arguments     json.RawMessage `json:"arguments"`
	Checkout      bool            `json:"checkout"`
	Confirmation  bool            `json:"confirmation"`
	ProposalToken string          `json:"proposalToken,omitempty"`
}

// IntentArguments is the union of the arguments of all actions.
type IntentArguments struct {
	Date    string `json:"date"`
	Time    string `json:"time,omitempty"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Subject string `json:"subject,omitempty"`
}

type FunctionResult struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ErrorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Envelope is the reply to one intent.
type Envelope struct {
	CallID         string            `json:"callId,omitempty"`
	Action         string            `json:"action"`
	State          ConfirmationState `json:"state,omitempty"`
	ProposalToken  string            `json:"proposalToken,omitempty"`
	FunctionResult FunctionResult    `json:"functionResult"`
	Error          *ErrorBody        `json:"error,omitempty"`
}

type DispatchRequest struct {
	Intent  *Intent  `json:"intent,omitempty"`
	Intents []Intent `json:"intents,omitempty"`
}

type DispatchResponse struct {
	Results []Envelope `json:"results"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Reply   string     `json:"reply"`
	Model   string     `json:"model,omitempty"`
	Results []Envelope `json:"results,omitempty"`
}
