package validator

import (
	"strings"
	"time"

	"schedule-agent/core/controller"
	"schedule-agent/core/utils"
	"schedule-agent/modules/schedule/dto"
	"schedule-agent/modules/schedule/entity"
)

type ValidationResult struct {
	Errors []controller.ValidationError `json:"errors"`
}

func (r *ValidationResult) Add(field, message string) {
	r.Errors = append(r.Errors, controller.NewValidationError(field, message))
}

func (r *ValidationResult) HasError() bool {
	return len(r.Errors) > 0
}

// Error joins the field errors into one message.
func (r *ValidationResult) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

func ValidateDate(date string, loc *time.Location) *ValidationResult {
	result := &ValidationResult{}
	checkDate(result, date, loc)
	return result
}

func ValidateSlotRef(date, slotTime string, loc *time.Location) *ValidationResult {
	result := &ValidationResult{}
	checkDate(result, date, loc)
	checkTime(result, slotTime)
	return result
}

func ValidateBookSlotRequest(req *dto.BookSlotRequest, loc *time.Location) *ValidationResult {
	result := ValidateSlotRef(req.Date, req.Time, loc)
	if strings.TrimSpace(req.Name) == "" {
		result.Add("name", "name is required")
	}
	if strings.TrimSpace(req.Subject) == "" {
		result.Add("subject", "subject is required")
	}
	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		result.Add("email", "email is required")
	case !utils.IsValidEmail(email):
		result.Add("email", "email is invalid")
	}
	return result
}

func checkDate(result *ValidationResult, date string, loc *time.Location) {
	if date == "" {
		result.Add("date", "date is required")
		return
	}
	if _, err := entity.ParseDate(date, loc); err != nil {
		result.Add("date", "date must be YYYY-MM-DD")
	}
}

func checkTime(result *ValidationResult, slotTime string) {
	if slotTime == "" {
		result.Add("time", "time is required")
		return
	}
	if !entity.IsStandardTime(slotTime) {
		result.Add("time", "time must be one of "+strings.Join(entity.StandardTimes, ", "))
	}
}
