package dto

import "schedule-agent/modules/schedule/entity"

// Slot view sources.
const (
	SourceInternal = "internal"
	SourceExternal = "external"
	SourceBoth     = "both"
	SourceNone     = "none"
)

// Side effect targets and outcomes.
const (
	TargetInternal = "internal"
	TargetCalendar = "calendar"
	TargetEmail    = "email"

	EffectOK      = "ok"
	EffectFailed  = "failed"
	EffectSkipped = "skipped"
)

type BookSlotRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Subject string `json:"subject"`
}

type CancelSlotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type MaterializeDayRequest struct {
	Date string `json:"date"`
}

type SlotView struct {
	Time    string            `json:"time"`
	Status  entity.SlotStatus `json:"status"`
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Company string            `json:"company"`
	Subject string            `json:"subject"`
	Source  string            `json:"source"`
	EventID string            `json:"eventId,omitempty"`
}

// DayView is the merged internal + external view of one date.
type DayView struct {
	Date          string     `json:"date"`
	Exists        bool       `json:"exists"`
	Slots         []SlotView `json:"slots"`
	ExternalError string     `json:"externalError,omitempty"`
}

// Slot returns the view of the slot starting at t, or nil.
func (v *DayView) Slot(t string) *SlotView {
	for i := range v.Slots {
		if v.Slots[i].Time == t {
			return &v.Slots[i]
		}
	}
	return nil
}

type SideEffect struct {
	Target string `json:"target"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// BookingResult reports a committed book or cancel and the outcome of each
// best-effort side effect.
type BookingResult struct {
	Day                 *entity.Day  `json:"day,omitempty"`
	Slot                *entity.Slot `json:"slot"`
	Changed             bool         `json:"changed"`
	EventID             string       `json:"eventId,omitempty"`
	GoogleCalendarError string       `json:"googleCalendarError,omitempty"`
	EmailError          string       `json:"emailError,omitempty"`
	SideEffects         []SideEffect `json:"sideEffects"`
}

func (r *BookingResult) AddEffect(target, status, detail string) {
	r.SideEffects = append(r.SideEffects, SideEffect{Target: target, Status: status, Detail: detail})
}

type MaterializeResult struct {
	Day     *entity.Day `json:"day"`
	Created bool        `json:"created"`
}

type HorizonResult struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Days    int    `json:"days"`
	Created int    `json:"created"`
}

// MaterializeHorizonPayload is the asynq payload of queue.TaskMaterializeHorizon.
type MaterializeHorizonPayload struct {
	Days int `json:"days"`
}
