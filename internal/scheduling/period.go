package scheduling

import (
	"time"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

// Period is the dated span of an academic calendar.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodOf extracts the dated span of a calendar.
func PeriodOf(cal models.AcademicCalendar) Period {
	return Period{Start: cal.StartDate, End: cal.EndDate}
}

// Valid reports whether the period starts strictly before it ends.
func (p Period) Valid() bool {
	return p.Start.Before(p.End)
}

// Overlaps reports whether two calendar periods share any time.
func (p Period) Overlaps(other Period) bool {
	return OverlapsFunc(p.Start, p.End, other.Start, other.End, time.Time.Before)
}

// TemporalPeriod is a weekly slot (day plus time range) repeated within a calendar period.
type TemporalPeriod struct {
	Period Period
	Day    models.Weekday
	Start  models.ClockTime
	End    models.ClockTime
}

// SlotOverlaps compares only the weekly slot: same day and intersecting time ranges.
func (t TemporalPeriod) SlotOverlaps(other TemporalPeriod) bool {
	return t.Day == other.Day && Overlaps(t.Start, t.End, other.Start, other.End)
}

// Collides reports whether two weekly slots meet on at least one real day:
// same weekday, intersecting times and intersecting calendar periods.
func (t TemporalPeriod) Collides(other TemporalPeriod) bool {
	return t.SlotOverlaps(other) && t.Period.Overlaps(other.Period)
}
