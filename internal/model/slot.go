package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// SlotTime is a time of day in minutes after midnight.
type SlotTime int

func NewSlotTime(hour, minute int) SlotTime {
	return SlotTime(hour*60 + minute)
}

// ParseSlotTime parses "HH:MM".
func ParseSlotTime(s string) (SlotTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return NewSlotTime(t.Hour(), t.Minute()), nil
}

func (t SlotTime) Hour() int   { return int(t) / 60 }
func (t SlotTime) Minute() int { return int(t) % 60 }

func (t SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On returns the instant this slot starts on the given date.
func (t SlotTime) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location())
}

func (t SlotTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SlotTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSlotTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Slot is one bookable time for a doctor on a date.
type Slot struct {
	Time      SlotTime `json:"time"`
	Available bool     `json:"available"`
}
