package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"schedule-agent/core/constants"
	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/core/middleware"
	"schedule-agent/core/utils"
	"schedule-agent/modules/agent/dto"
	scheduleDto "schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/entity"
	"schedule-agent/modules/schedule/validator"
)

type ScheduleReader interface {
	GetDay(ctx context.Context, date string) (*scheduleDto.DayView, error)
}

type SlotBooker interface {
	Book(ctx context.Context, req scheduleDto.BookSlotRequest) (*scheduleDto.BookingResult, error)
	Cancel(ctx context.Context, req scheduleDto.CancelSlotRequest) (*scheduleDto.BookingResult, error)
}

// Dispatcher turns one intent into at most one state transition. Mutating
// actions pass the checkout then confirmation gate first.
type Dispatcher struct {
	view    ScheduleReader
	booking SlotBooker
	loc     *time.Location
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewDispatcher signs proposals with secret; an empty secret disables
// proposal tokens.
func NewDispatcher(view ScheduleReader, booking SlotBooker, loc *time.Location, secret []byte) *Dispatcher {
	return &Dispatcher{
		view:    view,
		booking: booking,
		loc:     loc,
		secret:  secret,
		ttl:     constants.ProposalTokenTTL,
		now:     time.Now,
	}
}

// DispatchAll runs intents in order. A failing intent does not stop the rest.
func (d *Dispatcher) DispatchAll(ctx context.Context, intents []dto.Intent) []dto.Envelope {
	out := make([]dto.Envelope, 0, len(intents))
	for _, intent := range intents {
		env, _ := d.Dispatch(ctx, intent)
		out = append(out, env)
	}
	return out
}

// Dispatch always returns an envelope. The error, when not nil, is the
// AppError also reported in env.Error.
func (d *Dispatcher) Dispatch(ctx context.Context, intent dto.Intent) (dto.Envelope, error) {
	env := dto.Envelope{CallID: intent.CallID, Action: intent.Action}
	if env.CallID == "" {
		env.CallID = utils.GenerateID()
	}

	args, err := decodeArguments(intent.Arguments)
	if err != nil {
		return fail(env, errors.NewAppError(errors.ErrInvalidInput, "malformed arguments", err))
	}

	switch intent.Action {
	case dto.ActionGetScheduleByDate:
		env.FunctionResult.Type = dto.ResultSchedule
		return d.getSchedule(ctx, env, args)
	case dto.ActionBookSlot:
		env.FunctionResult.Type = dto.ResultBooking
		req := scheduleDto.BookSlotRequest{Date: args.Date, Time: args.Time, Name: args.Name, Email: args.Email, Company: args.Company, Subject: args.Subject}
		if result := validator.ValidateBookSlotRequest(&req, d.loc); result.HasError() {
			return fail(env, errors.NewAppError(errors.ErrInvalidInput, result.Error(), result))
		}
		return d.gate(ctx, env, intent, args, func(ctx context.Context) (string, any, error) {
			res, err := d.booking.Book(ctx, req)
			if err != nil {
				return "", nil, err
			}
			return bookedMessage(args, res), res, nil
		})
	case dto.ActionCancelBooking:
		env.FunctionResult.Type = dto.ResultCancellation
		req := scheduleDto.CancelSlotRequest{Date: args.Date, Time: args.Time}
		if result := validator.ValidateSlotRef(req.Date, req.Time, d.loc); result.HasError() {
			return fail(env, errors.NewAppError(errors.ErrInvalidInput, result.Error(), result))
		}
		return d.gate(ctx, env, intent, args, func(ctx context.Context) (string, any, error) {
			res, err := d.booking.Cancel(ctx, req)
			if err != nil {
				return "", nil, err
			}
			return cancelledMessage(args, res), res, nil
		})
	default:
		return fail(env, errors.NewAppError(errors.ErrInvalidInput, fmt.Sprintf("unknown action %q", intent.Action), nil))
	}
}

func (d *Dispatcher) getSchedule(ctx context.Context, env dto.Envelope, args dto.IntentArguments) (dto.Envelope, error) {
	view, err := d.view.GetDay(ctx, args.Date)
	if err != nil {
		return fail(env, err)
	}
	env.State = dto.StateApplied
	env.FunctionResult.Message = scheduleMessage(view)
	env.FunctionResult.Data = view
	return env, nil
}

// gate enforces the confirmation protocol and runs apply only for a
// checked-out and confirmed intent.
func (d *Dispatcher) gate(ctx context.Context, env dto.Envelope, intent dto.Intent, args dto.IntentArguments, apply func(context.Context) (string, any, error)) (dto.Envelope, error) {
	switch {
	case !intent.Checkout && intent.Confirmation:
		return fail(env, errors.NewAppError(errors.ErrInvalidInput, "confirmation requires a checked-out proposal", nil))
	case !intent.Checkout || !intent.Confirmation:
		env.State = dto.StateProposed
		env.FunctionResult.Message = proposalMessage(intent.Action, args)
		env.FunctionResult.Data = args
		token, err := d.issueToken(intent.Action, args)
		if err != nil {
			logger.Warn("Dispatcher:Gate:IssueToken:Error", "action", intent.Action, "error", err)
		}
		env.ProposalToken = token
		msg := "review the summary, then resend with checkout and confirmation"
		if intent.Checkout {
			msg = "the user has not confirmed this proposal yet"
		}
		env.Error = &dto.ErrorBody{Code: errors.ErrConfirmationRequired, Message: msg}
		return env, errors.NewAppError(errors.ErrConfirmationRequired, msg, nil)
	}

	if intent.ProposalToken != "" {
		if err := d.verifyToken(intent.ProposalToken, intent.Action, args); err != nil {
			return fail(env, errors.NewAppError(errors.ErrInvalidInput, "proposal token does not match this request", err))
		}
	}

	env.State = dto.StateConfirmed
	logger.Info("Dispatcher:Gate:Confirmed", "action", intent.Action, "date", args.Date, "time", args.Time, "call_id", env.CallID, "request_id", middleware.RequestIDFrom(ctx))

	msg, data, err := apply(ctx)
	if err != nil {
		return fail(env, err)
	}
	env.State = dto.StateApplied
	env.FunctionResult.Message = msg
	env.FunctionResult.Data = data
	return env, nil
}

func (d *Dispatcher) issueToken(action string, args dto.IntentArguments) (string, error) {
	if len(d.secret) == 0 {
		return "", nil
	}
	return utils.GenerateProposalToken(d.secret, action, digest(action, args), d.ttl, d.now())
}

func (d *Dispatcher) verifyToken(raw, action string, args dto.IntentArguments) error {
	if len(d.secret) == 0 {
		return fmt.Errorf("proposal tokens are disabled")
	}
	claims, err := utils.ParseProposalToken(d.secret, raw, d.now())
	if err != nil {
		return err
	}
	if claims.Action != action || claims.Digest != digest(action, args) {
		return fmt.Errorf("token was issued for a different request")
	}
	return nil
}

func digest(action string, args dto.IntentArguments) string {
	normalized := dto.IntentArguments{
		Date:    strings.TrimSpace(args.Date),
		Time:    strings.TrimSpace(args.Time),
		Name:    strings.TrimSpace(args.Name),
		Email:   strings.ToLower(strings.TrimSpace(args.Email)),
		Company: strings.TrimSpace(args.Company),
		Subject: strings.TrimSpace(args.Subject),
	}
	raw, _ := json.Marshal(normalized)
	sum := sha256.Sum256(append([]byte(action+"\n"), raw...))
	return hex.EncodeToString(sum[:])
}

// decodeArguments accepts an object or a JSON string holding an object,
// which is how tool calls carry them.
func decodeArguments(raw json.RawMessage) (dto.IntentArguments, error) {
	var args dto.IntentArguments
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return args, fmt.Errorf("arguments are required")
	}
	raw, err := unwrapArguments(raw)
	if err != nil {
		return args, err
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, err
	}
	return args, nil
}

func fail(env dto.Envelope, err error) (dto.Envelope, error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewAppError(errors.ErrInternalServer, "unexpected error", err)
	}
	env.Error = &dto.ErrorBody{Code: appErr.Code, Message: appErr.Message}
	if env.FunctionResult.Message == "" {
		env.FunctionResult.Message = appErr.Message
	}
	return env, appErr
}

func scheduleMessage(view *scheduleDto.DayView) string {
	free := make([]string, 0, len(view.Slots))
	for _, s := range view.Slots {
		if s.Status == entity.SlotAvailable {
			free = append(free, s.Time)
		}
	}
	if len(free) == 0 {
		return fmt.Sprintf("No free slots on %s.", view.Date)
	}
	return fmt.Sprintf("Free slots on %s: %s.", view.Date, strings.Join(free, ", "))
}

func proposalMessage(action string, args dto.IntentArguments) string {
	if action == dto.ActionCancelBooking {
		return fmt.Sprintf("Cancel the booking at %s on %s? Please confirm.", args.Time, args.Date)
	}
	who := args.Name
	if args.Company != "" {
		who += " (" + args.Company + ")"
	}
	return fmt.Sprintf("Book %s on %s for %s <%s> about %q? Please confirm.", args.Time, args.Date, who, args.Email, args.Subject)
}

func bookedMessage(args dto.IntentArguments, res *scheduleDto.BookingResult) string {
	msg := fmt.Sprintf("Booked %s on %s for %s about %q.", args.Time, args.Date, args.Name, args.Subject)
	if res.GoogleCalendarError != "" {
		msg += " The calendar invite could not be created."
	}
	if res.EmailError != "" {
		msg += " The confirmation email could not be sent."
	}
	return msg
}

func cancelledMessage(args dto.IntentArguments, res *scheduleDto.BookingResult) string {
	if !res.Changed {
		return fmt.Sprintf("The %s slot on %s was already free.", args.Time, args.Date)
	}
	msg := fmt.Sprintf("Cancelled the booking at %s on %s.", args.Time, args.Date)
	if res.GoogleCalendarError != "" {
		msg += " The calendar event could not be removed."
	}
	return msg
}

// unwrapArguments accepts arguments sent as a JSON-encoded string.
func unwrapArguments(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return raw, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, err
	}
	return json.RawMessage(inner), nil
}
