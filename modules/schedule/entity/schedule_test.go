package entity

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("ICT", 7*3600)

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2025-03-10", false},
		{"2025-3-10", true},
		{"2025-02-30", true},
		{"10/03/2025", true},
		{"", true},
	}
	for _, tt := range tests {
		_, err := ParseDate(tt.in, loc)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDate(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestSlotStart(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("ICT", 7*3600)
	got, err := SlotStart("2025-03-10", "09:00", loc)
	if err != nil {
		t.Fatalf("SlotStart: %v", err)
	}
	want := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("SlotStart = %v, want %v", got, want)
	}

	if _, err := SlotStart("2025-03-10", "12:00", loc); err == nil {
		t.Fatalf("expected 12:00 to be rejected")
	}
	if _, err := SlotStart("2025-03-10", "9:00", loc); err == nil {
		t.Fatalf("expected 9:00 to be rejected")
	}
}

func TestNewDay(t *testing.T) {
	t.Parallel()

	day := NewDay("2025-03-10")
	if len(day.Slots) != len(StandardTimes) {
		t.Fatalf("len(slots) = %d", len(day.Slots))
	}
	for i, s := range day.Slots {
		if s.Time != StandardTimes[i] || s.Status != SlotAvailable {
			t.Fatalf("slot %d = %+v", i, s)
		}
	}
	if day.Slot("13:00") == nil || day.Slot("12:00") != nil {
		t.Fatalf("Slot lookup mismatch")
	}
}
