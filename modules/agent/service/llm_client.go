package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/modules/agent/dto"
	"schedule-agent/modules/schedule/entity"

	"golang.org/x/oauth2"
)

// LLMClient sends one chat completion turn with the agent tools attached.
type LLMClient interface {
	Complete(ctx context.Context, messages []dto.LLMMessage) (*dto.LLMMessage, string, error)
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	HTTPClient *http.Client
}

type openAIClient struct {
	client  *http.Client
	baseURL string
	model   string
	timeout time.Duration
}

// NewOpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// The API key is sent as a bearer token.
func NewOpenAIClient(ctx context.Context, cfg OpenAIConfig) LLMClient {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.APIKey != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &openAIClient{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: timeout,
	}
}

func (c *openAIClient) Complete(ctx context.Context, messages []dto.LLMMessage) (*dto.LLMMessage, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(dto.LLMRequest{
		Model:      c.model,
		Messages:   messages,
		Tools:      AgentTools(),
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrInternalServer, "failed to encode completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrInternalServer, "failed to build completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrExternalSync, "language model request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrExternalSync, "failed to read language model response", err)
	}
	logger.Debug("LLMClient:Complete:Response", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.LLMErrorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, "", errors.NewAppError(errors.ErrExternalSync, "language model returned an error",
			fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var out dto.LLMResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, "", errors.NewAppError(errors.ErrExternalSync, "failed to decode language model response", err)
	}
	if len(out.Choices) == 0 {
		return nil, "", errors.NewAppError(errors.ErrExternalSync, "language model returned no choices", nil)
	}
	model := out.Model
	if model == "" {
		model = c.model
	}
	return &out.Choices[0].Message, model, nil
}

type jsonSchema map[string]any

func stringProp(description string) jsonSchema {
	p := jsonSchema{"type": "string"}
	if description != "" {
		p["description"] = description
	}
	return p
}

func objectSchema(props jsonSchema, required ...string) json.RawMessage {
	raw, _ := json.Marshal(jsonSchema{"type": "object", "properties": props, "required": required})
	return raw
}

func slotProps() jsonSchema {
	return jsonSchema{
		"date":         stringProp("Calendar date, YYYY-MM-DD"),
		"time":         jsonSchema{"type": "string", "enum": entity.StandardTimes},
		"checkout":     jsonSchema{"type": "boolean", "description": "True once the user has reviewed the summary"},
		"confirmation": jsonSchema{"type": "boolean", "description": "True only after the user explicitly agreed"},
	}
}

// AgentTools describes the three actions the model may call.
func AgentTools() []dto.LLMTool {
	book := slotProps()
	book["name"] = stringProp("")
	book["email"] = stringProp("Attendee email address")
	book["company"] = stringProp("")
	book["subject"] = stringProp("Meeting subject")

	return []dto.LLMTool{
		{Type: "function", Function: dto.LLMToolSchema{
			Name:        dto.ActionGetScheduleByDate,
			Description: "Show the standard slots of a date and which are free.",
			Parameters:  objectSchema(jsonSchema{"date": stringProp("Calendar date, YYYY-MM-DD")}, "date"),
		}},
		{Type: "function", Function: dto.LLMToolSchema{
			Name:        dto.ActionBookSlot,
			Description: "Book a free slot. Propose first, then repeat with checkout and confirmation set once the user agrees.",
			Parameters:  objectSchema(book, "date", "time", "name", "email", "subject"),
		}},
		{Type: "function", Function: dto.LLMToolSchema{
			Name:        dto.ActionCancelBooking,
			Description: "Cancel the booking of a slot. Propose first, then repeat with checkout and confirmation set once the user agrees.",
			Parameters:  objectSchema(slotProps(), "date", "time"),
		}},
	}
}
