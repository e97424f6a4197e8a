package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

// Dimension is a resource that can be double-booked.
type Dimension string

const (
	DimensionRoom     Dimension = "room"
	DimensionLecturer Dimension = "lecturer"
	DimensionClass    Dimension = "class"
)

// Dimensions is the order checks run in.
var Dimensions = []Dimension{DimensionRoom, DimensionLecturer, DimensionClass}

// Field is the request field a violation is reported against.
func (d Dimension) Field() string {
	switch d {
	case DimensionRoom:
		return FieldRoomCode
	case DimensionLecturer:
		return FieldLecturerID
	case DimensionClass:
		return FieldClassID
	}
	return string(d)
}

// ValueOf returns the entry's identifier in this dimension.
func (d Dimension) ValueOf(entry models.LecturerSchedule) interface{} {
	switch d {
	case DimensionRoom:
		return entry.RoomCode
	case DimensionLecturer:
		return entry.LecturerID
	case DimensionClass:
		return entry.ClassID
	}
	return nil
}

// LockKey names the advisory lock guarding one value of this dimension, e.g. "room:R101".
func (d Dimension) LockKey(value interface{}) string {
	return fmt.Sprintf("%s:%v", d, value)
}

// CandidateQuery selects existing entries that might collide with a proposal.
// When BatchNo is set only entries of that batch are returned and no calendar
// join is made; otherwise every candidate carries its calendar period.
type CandidateQuery struct {
	Dimension Dimension
	Value     interface{}
	Day       models.Weekday
	ExcludeID int64
	BatchNo   *int64
}

// ScheduleStore is the read side of the schedule table used by the checks.
type ScheduleStore interface {
	FindByID(ctx context.Context, id int64) (*models.LecturerSchedule, error)
	ListCandidates(ctx context.Context, query CandidateQuery) ([]models.ScheduleCandidate, error)
}

// CalendarReader resolves an academic calendar's dated period. Writers pass
// their transaction-bound store so the period is read under the same snapshot
// and locks as the candidates.
type CalendarReader interface {
	FindPeriod(ctx context.Context, calendarID int64) (Period, error)
}

// ErrMissingExclude is returned when a batch-scoped check is asked without the edited row id.
var ErrMissingExclude = errors.New("batch scoped conflict check requires the edited row id")

// ConflictChecker answers whether a proposed slot collides with stored
// entries on one resource dimension. It never writes.
type ConflictChecker struct {
	store     ScheduleStore
	calendars CalendarReader
}

// NewConflictChecker wires a checker over the given stores.
func NewConflictChecker(store ScheduleStore, calendars CalendarReader) *ConflictChecker {
	return &ConflictChecker{store: store, calendars: calendars}
}

// HasConflict reports whether any stored entry collides with the proposal.
func (c *ConflictChecker) HasConflict(ctx context.Context, dim Dimension, value interface{}, day models.Weekday, start, end models.ClockTime, scope Scope, excludeID int64) (bool, error) {
	conflicts, err := c.Conflicts(ctx, dim, value, day, start, end, scope, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// Conflicts returns the stored entries that collide with the proposal.
func (c *ConflictChecker) Conflicts(ctx context.Context, dim Dimension, value interface{}, day models.Weekday, start, end models.ClockTime, scope Scope, excludeID int64) ([]models.ScheduleCandidate, error) {
	query := CandidateQuery{Dimension: dim, Value: value, Day: day, ExcludeID: excludeID}

	var proposed Period
	switch scope.Mode {
	case ScopeNone:
		return nil, nil
	case ScopePeriod:
		period, err := c.resolvePeriod(ctx, &scope)
		if err != nil {
			return nil, err
		}
		proposed = period
	case ScopeBatch:
		if excludeID == 0 {
			return nil, ErrMissingExclude
		}
		batchNo := scope.BatchNo
		query.BatchNo = &batchNo
	default:
		return nil, fmt.Errorf("unknown scope mode %d", scope.Mode)
	}

	candidates, err := c.store.ListCandidates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s candidates: %w", dim, err)
	}

	var conflicts []models.ScheduleCandidate
	for _, candidate := range candidates {
		if excludeID != 0 && candidate.ID == excludeID {
			continue
		}
		if candidate.Day != day {
			continue
		}
		if scope.Mode == ScopePeriod && candidate.PeriodStart != nil && candidate.PeriodEnd != nil {
			if !proposed.Overlaps(Period{Start: *candidate.PeriodStart, End: *candidate.PeriodEnd}) {
				continue
			}
		}
		if Overlaps(start, end, candidate.StartTime, candidate.EndTime) {
			conflicts = append(conflicts, candidate)
		}
	}
	return conflicts, nil
}

func (c *ConflictChecker) resolvePeriod(ctx context.Context, scope *Scope) (Period, error) {
	if scope.Period != nil {
		return *scope.Period, nil
	}
	period, err := c.calendars.FindPeriod(ctx, scope.TermID)
	if err != nil {
		return Period{}, fmt.Errorf("load calendar period %d: %w", scope.TermID, err)
	}
	scope.Period = &period
	return period, nil
}
