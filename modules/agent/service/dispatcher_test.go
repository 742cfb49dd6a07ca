package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"schedule-agent/core/errors"
	"schedule-agent/modules/agent/dto"
)

func newTestDispatcher(stub *stubSchedule, secret string) *Dispatcher {
	return NewDispatcher(stub, stub, testLoc, []byte(secret))
}

func TestDispatchGetSchedule(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "")

	env, err := d.Dispatch(context.Background(), dto.Intent{
		Action:    dto.ActionGetScheduleByDate,
		Arguments: []byte(`{"date":"2025-03-10"}`),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if env.State != dto.StateApplied || env.FunctionResult.Type != dto.ResultSchedule {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if !strings.Contains(env.FunctionResult.Message, "09:00") {
		t.Fatalf("message should list free slots: %q", env.FunctionResult.Message)
	}
	if env.CallID == "" {
		t.Fatalf("call id should be generated")
	}
}

func TestDispatchBookRequiresCheckout(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "secret")

	env, err := d.Dispatch(context.Background(), bookIntent(false, false))
	if errors.CodeOf(err) != errors.ErrConfirmationRequired {
		t.Fatalf("expected CONFIRMATION_REQUIRED, got %v", err)
	}
	if env.State != dto.StateProposed || env.Error == nil || env.Error.Code != errors.ErrConfirmationRequired {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.ProposalToken == "" {
		t.Fatalf("proposal token should be issued when a secret is configured")
	}
	if !strings.Contains(env.FunctionResult.Message, "Ana (Acme)") {
		t.Fatalf("proposal should summarize the booking: %q", env.FunctionResult.Message)
	}
	if stub.books != 0 {
		t.Fatalf("proposal must not book")
	}
}

func TestDispatchBookCheckoutWithoutConfirmation(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "")

	env, err := d.Dispatch(context.Background(), bookIntent(true, false))
	if errors.CodeOf(err) != errors.ErrConfirmationRequired {
		t.Fatalf("expected CONFIRMATION_REQUIRED, got %v", err)
	}
	if env.State != dto.StateProposed || env.Error == nil || env.Error.Code != errors.ErrConfirmationRequired {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.ProposalToken != "" || env.FunctionResult.Message == "" {
		t.Fatalf("proposal summary expected without a token: %+v", env)
	}
	if stub.books != 0 {
		t.Fatalf("unconfirmed checkout must not book")
	}
}

func TestDispatchConfirmationWithoutCheckout(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "")

	_, err := d.Dispatch(context.Background(), bookIntent(false, true))
	if errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if stub.books != 0 {
		t.Fatalf("must not book")
	}
}

func TestDispatchBookConfirmed(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "")

	env, err := d.Dispatch(context.Background(), bookIntent(true, true))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if env.State != dto.StateApplied || env.FunctionResult.Type != dto.ResultBooking {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if stub.books != 1 {
		t.Fatalf("expected one booking, got %d", stub.books)
	}

	env, err = d.Dispatch(context.Background(), bookIntent(true, true))
	if errors.CodeOf(err) != errors.ErrConflict || env.Error == nil {
		t.Fatalf("second booking should conflict, got %v", err)
	}
}

func TestDispatchProposalTokenRoundTrip(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "secret")

	proposed, _ := d.Dispatch(context.Background(), bookIntent(false, false))

	tampered := bookIntent(true, true)
	tampered.Arguments = []byte(`{"date":"2025-03-10","time":"10:00","name":"Ana","email":"ana@example.com","company":"Acme","subject":"Kickoff"}`)
	tampered.ProposalToken = proposed.ProposalToken
	if _, err := d.Dispatch(context.Background(), tampered); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("token for other arguments must be rejected, got %v", err)
	}

	confirmed := bookIntent(true, true)
	confirmed.ProposalToken = proposed.ProposalToken
	if _, err := d.Dispatch(context.Background(), confirmed); err != nil {
		t.Fatalf("matching token should be accepted: %v", err)
	}

	d.now = func() time.Time { return time.Now().Add(time.Hour) }
	late := bookIntent(true, true)
	late.ProposalToken = proposed.ProposalToken
	if _, err := d.Dispatch(context.Background(), late); errors.CodeOf(err) != errors.ErrInvalidInput {
		t.Fatalf("expired token must be rejected, got %v", err)
	}
}

func TestDispatchArgumentsAsJSONString(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "")

	env, err := d.Dispatch(context.Background(), dto.Intent{
		Action:    dto.ActionGetScheduleByDate,
		Arguments: []byte(`"{\"date\":\"2025-03-10\"}"`),
	})
	if err != nil || env.State != dto.StateApplied {
		t.Fatalf("string arguments should decode: %v %+v", err, env)
	}
}

func TestDispatchRejectsBadInput(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(newStubSchedule(), "")

	cases := map[string]dto.Intent{
		"unknown action":    {Action: "deleteEverything", Arguments: []byte(`{}`)},
		"malformed":         {Action: dto.ActionGetScheduleByDate, Arguments: []byte(`{"date":`)},
		"missing arguments": {Action: dto.ActionGetScheduleByDate},
		"bad time":          {Action: dto.ActionCancelBooking, Arguments: []byte(`{"date":"2025-03-10","time":"09:30"}`), Checkout: true, Confirmation: true},
		"bad email":         {Action: dto.ActionBookSlot, Arguments: []byte(`{"date":"2025-03-10","time":"09:00","name":"Ana","email":"nope","subject":"x"}`)},
	}
	for name, intent := range cases {
		env, err := d.Dispatch(context.Background(), intent)
		if errors.CodeOf(err) != errors.ErrInvalidInput {
			t.Errorf("%s: expected INVALID_INPUT, got %v", name, err)
		}
		if env.Error == nil || env.Error.Code != errors.ErrInvalidInput {
			t.Errorf("%s: envelope error not set: %+v", name, env)
		}
	}
}

func TestDispatchAllIsIndependent(t *testing.T) {
	t.Parallel()
	stub := newStubSchedule()
	d := newTestDispatcher(stub, "")

	results := d.DispatchAll(context.Background(), []dto.Intent{
		{Action: "nope", Arguments: []byte(`{}`)},
		bookIntent(true, true),
		{Action: dto.ActionCancelBooking, Arguments: []byte(`{"date":"2025-03-10","time":"09:00"}`), Checkout: true, Confirmation: true},
		{Action: dto.ActionCancelBooking, Arguments: []byte(`{"date":"2025-03-10","time":"09:00"}`), Checkout: true, Confirmation: true},
	})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Fatalf("first intent should fail")
	}
	if results[1].State != dto.StateApplied || results[2].State != dto.StateApplied {
		t.Fatalf("later intents should still apply: %+v %+v", results[1], results[2])
	}
	if !strings.Contains(results[3].FunctionResult.Message, "already free") {
		t.Fatalf("repeat cancel should be a no-op: %q", results[3].FunctionResult.Message)
	}
}
