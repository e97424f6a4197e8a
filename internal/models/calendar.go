package models

import (
	"fmt"
	"time"
)

// AcademicCalendar is a dated instance of a term within a school year.
type AcademicCalendar struct {
	ID         int64     `db:"id" json:"id"`
	TermID     int64     `db:"term_id" json:"term_id"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicCalendarDetail adds the term name for listings.
type AcademicCalendarDetail struct {
	AcademicCalendar
	TermName string `db:"term_name" json:"term_name"`
}

// CalendarFilter narrows down calendars.
type CalendarFilter struct {
	TermID     int64
	SchoolYear string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// CalendarInUseError is returned when a calendar's dates would move under
// schedules that reference it.
type CalendarInUseError struct {
	CalendarID int64
	Schedules  int
}

func (e *CalendarInUseError) Error() string {
	return fmt.Sprintf("academic calendar %d is used by %d schedules", e.CalendarID, e.Schedules)
}
