package entity

import (
	"fmt"
	"time"

	"schedule-agent/core/constants"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
)

// SlotDuration is the fixed length of every slot.
const SlotDuration = time.Hour

// StandardTimes are the slot start times every Day carries, in order.
var StandardTimes = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// Booking is the metadata a booked slot holds.
type Booking struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Subject string `json:"subject"`
}

type Slot struct {
	Date    string     `db:"schedule_date" json:"-"`
	Time    string     `db:"slot_time" json:"time"`
	Status  SlotStatus `db:"status" json:"status"`
	Name    string     `db:"name" json:"name"`
	Email   string     `db:"email" json:"email"`
	Company string     `db:"company" json:"company"`
	Subject string     `db:"subject" json:"subject"`
}

func (s *Slot) Booking() Booking {
	return Booking{Name: s.Name, Email: s.Email, Company: s.Company, Subject: s.Subject}
}

type Day struct {
	Date  string `db:"schedule_date" json:"date"`
	Slots []Slot `json:"slots"`
}

// Slot returns the slot starting at t, or nil.
func (d *Day) Slot(t string) *Slot {
	if d == nil {
		return nil
	}
	for i := range d.Slots {
		if d.Slots[i].Time == t {
			return &d.Slots[i]
		}
	}
	return nil
}

// NewDay returns an unsaved day with every standard slot available.
func NewDay(date string) *Day {
	day := &Day{Date: date, Slots: make([]Slot, 0, len(StandardTimes))}
	for _, t := range StandardTimes {
		day.Slots = append(day.Slots, Slot{Date: date, Time: t, Status: SlotAvailable})
	}
	return day
}

func IsStandardTime(t string) bool {
	for _, st := range StandardTimes {
		if st == t {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(constants.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", date)
	}
	if d.Format(constants.DateLayout) != date {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", date)
	}
	return d, nil
}

// SlotStart returns the instant a slot begins in loc.
func SlotStart(date, slotTime string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !IsStandardTime(slotTime) {
		return time.Time{}, fmt.Errorf("time must be one of %v: %q", StandardTimes, slotTime)
	}
	t, err := time.Parse(constants.TimeLayout, slotTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("time must be HH:mm: %q", slotTime)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
