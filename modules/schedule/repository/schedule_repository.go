package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"schedule-agent/core/database"
	"schedule-agent/modules/schedule/entity"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrSlotNotFound means the day or the slot has not been materialized.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrSlotUnavailable means a conditional book found the slot not available.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrBookingChanged means a conditional release found a different booking.
	ErrBookingChanged = errors.New("slot booking changed")
)

type ScheduleRepository interface {
	FindDay(ctx context.Context, date string) (*entity.Day, error)
	ListDays(ctx context.Context) ([]entity.Day, error)
	UpsertDay(ctx context.Context, date string, times []string) (*entity.Day, bool, error)
	FindSlot(ctx context.Context, date, slotTime string) (*entity.Slot, error)
	BookSlot(ctx context.Context, date, slotTime string, booking entity.Booking) (*entity.Slot, error)
	ReleaseSlot(ctx context.Context, date, slotTime string, prior entity.Booking) (*entity.Slot, error)
}

type scheduleRepository struct {
	db database.Database
}

func NewScheduleRepository(db database.Database) ScheduleRepository {
	return &scheduleRepository{db: db}
}

const slotColumns = `schedule_date, slot_time, status, name, email, company, subject`

// FindDay returns nil, nil when no day exists for date.
func (r *scheduleRepository) FindDay(ctx context.Context, date string) (*entity.Day, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM schedules WHERE schedule_date = ?`), date); err != nil {
		return nil, fmt.Errorf("find schedule %s: %w", date, err)
	}
	if count == 0 {
		return nil, nil
	}

	slots := []entity.Slot{}
	query := r.db.Rebind(`
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE schedule_date = ?
		ORDER BY slot_time
	`)
	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("list slots for %s: %w", date, err)
	}
	return &entity.Day{Date: date, Slots: slots}, nil
}

func (r *scheduleRepository) ListDays(ctx context.Context) ([]entity.Day, error) {
	var dates []string
	if err := r.db.SelectContext(ctx, &dates, `SELECT schedule_date FROM schedules ORDER BY schedule_date`); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	var slots []entity.Slot
	query := `SELECT ` + slotColumns + ` FROM schedule_slots ORDER BY schedule_date, slot_time`
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	days := make([]entity.Day, 0, len(dates))
	index := make(map[string]int, len(dates))
	for _, d := range dates {
		index[d] = len(days)
		days = append(days, entity.Day{Date: d, Slots: []entity.Slot{}})
	}
	for _, s := range slots {
		if i, ok := index[s.Date]; ok {
			days[i].Slots = append(days[i].Slots, s)
		}
	}
	return days, nil
}

// UpsertDay creates the day and any missing slots as available. Existing
// slots are never touched. created reports whether the day row is new.
func (r *scheduleRepository) UpsertDay(ctx context.Context, date string, times []string) (*entity.Day, bool, error) {
	created := false
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO schedules (schedule_date) VALUES (?)
			ON CONFLICT (schedule_date) DO NOTHING
		`), date)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			created = true
		}

		insertSlot := tx.Rebind(`
			INSERT INTO schedule_slots (schedule_date, slot_time, status) VALUES (?, ?, ?)
			ON CONFLICT (schedule_date, slot_time) DO NOTHING
		`)
		for _, t := range times {
			if _, err := tx.ExecContext(ctx, insertSlot, date, t, entity.SlotAvailable); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert schedule %s: %w", date, err)
	}

	day, err := r.FindDay(ctx, date)
	if err != nil {
		return nil, false, err
	}
	return day, created, nil
}

// FindSlot returns nil, nil when the slot does not exist.
func (r *scheduleRepository) FindSlot(ctx context.Context, date, slotTime string) (*entity.Slot, error) {
	var slot entity.Slot
	query := r.db.Rebind(`SELECT ` + slotColumns + ` FROM schedule_slots WHERE schedule_date = ? AND slot_time = ?`)
	err := r.db.GetContext(ctx, &slot, query, date, slotTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find slot %s %s: %w", date, slotTime, err)
	}
	return &slot, nil
}

// BookSlot marks the slot booked only if it is currently available. It
// returns ErrSlotNotFound or ErrSlotUnavailable (with the current slot)
// when the update does not apply.
func (r *scheduleRepository) BookSlot(ctx context.Context, date, slotTime string, booking entity.Booking) (*entity.Slot, error) {
	query := r.db.Rebind(`
		UPDATE schedule_slots
		SET status = ?, name = ?, email = ?, company = ?, subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE schedule_date = ? AND slot_time = ? AND status = ?
		RETURNING ` + slotColumns)

	var slot entity.Slot
	err := r.db.GetContext(ctx, &slot, query,
		entity.SlotBooked, booking.Name, booking.Email, booking.Company, booking.Subject,
		date, slotTime, entity.SlotAvailable,
	)
	if err == nil {
		return &slot, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book slot %s %s: %w", date, slotTime, err)
	}
	return r.explainMiss(ctx, date, slotTime, ErrSlotUnavailable)
}

// ReleaseSlot clears the slot only if it still holds prior.
func (r *scheduleRepository) ReleaseSlot(ctx context.Context, date, slotTime string, prior entity.Booking) (*entity.Slot, error) {
	query := r.db.Rebind(`
		UPDATE schedule_slots
		SET status = ?, name = '', email = '', company = '', subject = '', updated_at = CURRENT_TIMESTAMP
		WHERE schedule_date = ? AND slot_time = ? AND status = ?
			AND name = ? AND email = ? AND company = ? AND subject = ?
		RETURNING ` + slotColumns)

	var slot entity.Slot
	err := r.db.GetContext(ctx, &slot, query,
		entity.SlotAvailable,
		date, slotTime, entity.SlotBooked,
		prior.Name, prior.Email, prior.Company, prior.Subject,
	)
	if err == nil {
		return &slot, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("release slot %s %s: %w", date, slotTime, err)
	}
	return r.explainMiss(ctx, date, slotTime, ErrBookingChanged)
}

func (r *scheduleRepository) explainMiss(ctx context.Context, date, slotTime string, missErr error) (*entity.Slot, error) {
	current, err := r.FindSlot(ctx, date, slotTime)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrSlotNotFound
	}
	return current, missErr
}
