package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the day a timetable entry repeats on.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists the accepted days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday normalises a case-insensitive day name.
func ParseWeekday(raw string) (Weekday, error) {
	trimmed := strings.TrimSpace(raw)
	for _, day := range Weekdays {
		if strings.EqualFold(trimmed, string(day)) {
			return day, nil
		}
	}
	return "", fmt.Errorf("invalid weekday %q", raw)
}

// Valid reports whether the value is one of the canonical Monday..Sunday names.
func (d Weekday) Valid() bool {
	parsed, err := ParseWeekday(string(d))
	return err == nil && parsed == d
}

// ClockTime is a time of day stored as minutes since midnight.
type ClockTime int

// NewClockTime builds a clock time from hour and minute parts.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM" or "HH:MM:SS".
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", raw)
		}
	}
	return NewClockTime(hour, minute), nil
}

// MustClockTime is ParseClockTime for literals known to be valid.
func MustClockTime(raw string) ClockTime {
	t, err := ParseClockTime(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the time as HH:MM.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes the time as "HH:MM".
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM".
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan reads TIME columns, which lib/pq returns as text.
func (t *ClockTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	case time.Time:
		*t = NewClockTime(v.Hour(), v.Minute())
		return nil
	case nil:
		*t = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

func (t *ClockTime) scanString(raw string) error {
	// strip fractional seconds and zone suffixes such as "09:00:00.000000"
	if idx := strings.IndexAny(raw, ".+"); idx > 0 {
		raw = raw[:idx]
	}
	parsed, err := ParseClockTime(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value writes the time as a TIME literal.
func (t ClockTime) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}
