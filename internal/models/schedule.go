package models

import "time"

// LecturerSchedule is a concrete timetable entry: who teaches what, where and when.
type LecturerSchedule struct {
	ID         int64     `db:"id" json:"id"`
	LecturerID int64     `db:"lecturer_id" json:"lecturer_id"`
	ProgSubjID int64     `db:"prog_subj_id" json:"prog_subj_id"`
	RoomCode   string    `db:"room_code" json:"room_code"`
	Day        Weekday   `db:"day" json:"day"`
	StartTime  ClockTime `db:"start_time" json:"start_time"`
	EndTime    ClockTime `db:"end_time" json:"end_time"`
	ClassID    int64     `db:"class_id" json:"class_id"`
	SYTermID   int64     `db:"sy_term_id" json:"sy_term_id"`
	BatchNo    *int64    `db:"batch_no" json:"batch_no,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleCandidate is an existing entry loaded for conflict checks, with the
// dates of its academic calendar when the query joined them.
type ScheduleCandidate struct {
	LecturerSchedule
	PeriodStart *time.Time `db:"period_start" json:"period_start,omitempty"`
	PeriodEnd   *time.Time `db:"period_end" json:"period_end,omitempty"`
}

// LecturerScheduleFilter describes query params for listing schedules.
type LecturerScheduleFilter struct {
	LecturerID int64
	ClassID    int64
	SYTermID   int64
	RoomCode   string
	Day        Weekday
	BatchNo    *int64
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ScheduleConflict describes an existing schedule that collides with a proposal.
type ScheduleConflict struct {
	ScheduleID int64     `json:"schedule_id"`
	Field      string    `json:"field"`
	LecturerID int64     `json:"lecturer_id"`
	RoomCode   string    `json:"room_code"`
	ClassID    int64     `json:"class_id"`
	SYTermID   int64     `json:"sy_term_id"`
	BatchNo    *int64    `json:"batch_no,omitempty"`
	Day        Weekday   `json:"day"`
	StartTime  ClockTime `json:"start_time"`
	EndTime    ClockTime `json:"end_time"`
}

// ScheduleConflictError is returned when a proposal is rejected by the conflict rules.
type ScheduleConflictError struct {
	Message   string             `json:"message"`
	Fields    map[string]string  `json:"fields"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// BatchItemRejection reports why one entry of a batch could not be scheduled.
type BatchItemRejection struct {
	Index     int                `json:"index"`
	Fields    map[string]string  `json:"fields"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
}

// ScheduleReferences reports which rows referenced by a schedule exist.
type ScheduleReferences struct {
	Lecturer       bool `db:"lecturer"`
	ProgramSubject bool `db:"program_subject"`
	Room           bool `db:"room"`
	Class          bool `db:"class"`
	Calendar       bool `db:"calendar"`
}

// Missing maps the request field of every absent reference to a message.
func (r ScheduleReferences) Missing() map[string]string {
	missing := map[string]string{}
	if !r.Lecturer {
		missing["lecturer_id"] = "lecturer not found"
	}
	if !r.ProgramSubject {
		missing["prog_subj_id"] = "program subject not found"
	}
	if !r.Room {
		missing["room_code"] = "room not found"
	}
	if !r.Class {
		missing["class_id"] = "class not found"
	}
	if !r.Calendar {
		missing["sy_term_id"] = "academic calendar not found"
	}
	return missing
}

// ScheduleBatchError is returned when any entry of a batch is rejected; nothing is stored.
type ScheduleBatchError struct {
	Message    string               `json:"message"`
	Rejections []BatchItemRejection `json:"rejections"`
}

// Error implements the error interface for batch rejections.
func (e *ScheduleBatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// ScheduleBatch is the outcome of an accepted batch.
type ScheduleBatch struct {
	BatchNo   int64              `json:"batch_no"`
	Schedules []LecturerSchedule `json:"schedules"`
}

// ScheduleValidationReport is the outcome of a dry-run check.
type ScheduleValidationReport struct {
	Valid     bool               `json:"valid"`
	Scope     string             `json:"scope"`
	Errors    map[string]string  `json:"errors,omitempty"`
	Conflicts []ScheduleConflict `json:"conflicts,omitempty"`
}
