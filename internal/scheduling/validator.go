package scheduling

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

// Request fields a violation can be reported against.
const (
	FieldRoomCode   = "room_code"
	FieldLecturerID = "lecturer_id"
	FieldClassID    = "class_id"
	FieldEndTime    = "end_time"
)

// Kind classifies a violation.
type Kind string

const (
	KindTimeRange        Kind = "TIME_RANGE"
	KindRoomConflict     Kind = "ROOM_CONFLICT"
	KindLecturerConflict Kind = "LECTURER_CONFLICT"
	KindClassConflict    Kind = "CLASS_CONFLICT"
)

func conflictKind(dim Dimension) Kind {
	switch dim {
	case DimensionRoom:
		return KindRoomConflict
	case DimensionLecturer:
		return KindLecturerConflict
	default:
		return KindClassConflict
	}
}

// Violation is one business-rule rejection keyed by request field.
type Violation struct {
	Field     string
	Kind      Kind
	Message   string
	Conflicts []models.ScheduleCandidate
}

// Result is the decision for one proposal. An empty result accepts it.
type Result struct {
	Violations []Violation
	// Scope is the comparison universe the checks ran in.
	Scope Scope
}

// OK reports whether the proposal may be persisted.
func (r Result) OK() bool { return len(r.Violations) == 0 }

// Errors maps each failing field to its message.
func (r Result) Errors() map[string]string {
	if r.OK() {
		return nil
	}
	out := make(map[string]string, len(r.Violations))
	for _, v := range r.Violations {
		out[v.Field] = v.Message
	}
	return out
}

// Has reports whether a violation exists for the field.
func (r Result) Has(field string) bool {
	for _, v := range r.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// OnlyTimeRange reports whether the proposal failed the intra-entry check alone.
func (r Result) OnlyTimeRange() bool {
	return len(r.Violations) == 1 && r.Violations[0].Kind == KindTimeRange
}

// Observer receives validation outcomes, typically for metrics.
type Observer interface {
	ObserveValidation(mode string, accepted bool)
	ObserveConflict(dimension string)
	ObserveSkippedCheck(reason string)
}

// Validator runs the full rule set for a proposed entry.
type Validator struct {
	store    ScheduleStore
	checker  *ConflictChecker
	logger   *zap.Logger
	observer Observer
}

// NewValidator wires a validator over the given stores. logger and observer may be nil.
func NewValidator(store ScheduleStore, calendars CalendarReader, logger *zap.Logger, observer Observer) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		store:    store,
		checker:  NewConflictChecker(store, calendars),
		logger:   logger,
		observer: observer,
	}
}

// Validate decides whether entry may be stored under mode. Rule violations
// come back in the Result; the error is reserved for store failures.
func (v *Validator) Validate(ctx context.Context, entry models.LecturerSchedule, mode OperationMode) (Result, error) {
	if entry.StartTime >= entry.EndTime {
		result := Result{Violations: []Violation{{
			Field:   FieldEndTime,
			Kind:    KindTimeRange,
			Message: fmt.Sprintf("end time %s must be after start time %s", entry.EndTime, entry.StartTime),
		}}}
		v.observe(mode, false)
		return result, nil
	}

	var existing *models.LecturerSchedule
	if mode.IsEdit() {
		row, err := v.store.FindByID(ctx, mode.ID())
		if err != nil {
			return Result{}, fmt.Errorf("load edited schedule %d: %w", mode.ID(), err)
		}
		existing = row
	}

	scope := ResolveScope(mode, entry, existing)
	if scope.Mode == ScopeNone {
		v.logger.Warn("schedule edit has no batch number; resource conflict checks skipped",
			zap.Int64("schedule_id", mode.ID()),
			zap.String("room_code", entry.RoomCode),
			zap.Int64("lecturer_id", entry.LecturerID),
			zap.Int64("class_id", entry.ClassID),
		)
		if v.observer != nil {
			v.observer.ObserveSkippedCheck("missing_batch_no")
		}
		v.observe(mode, true)
		return Result{Scope: scope}, nil
	}
	if scope.Mode == ScopePeriod {
		if _, err := v.checker.resolvePeriod(ctx, &scope); err != nil {
			return Result{}, err
		}
	}

	result := Result{Scope: scope}
	for _, dim := range Dimensions {
		conflicts, err := v.checker.Conflicts(ctx, dim, dim.ValueOf(entry), entry.Day, entry.StartTime, entry.EndTime, scope, mode.ID())
		if err != nil {
			return Result{}, err
		}
		if len(conflicts) == 0 {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Field:     dim.Field(),
			Kind:      conflictKind(dim),
			Message:   conflictMessage(dim, entry, conflicts[0]),
			Conflicts: conflicts,
		})
		if v.observer != nil {
			v.observer.ObserveConflict(string(dim))
		}
	}

	v.observe(mode, result.OK())
	return result, nil
}

func (v *Validator) observe(mode OperationMode, accepted bool) {
	if v.observer != nil {
		v.observer.ObserveValidation(mode.String(), accepted)
	}
}

func conflictMessage(dim Dimension, entry models.LecturerSchedule, hit models.ScheduleCandidate) string {
	slot := fmt.Sprintf("%s %s-%s", hit.Day, hit.StartTime, hit.EndTime)
	switch dim {
	case DimensionRoom:
		return fmt.Sprintf("scheduling conflict: room %s is already booked on %s (schedule #%d)", entry.RoomCode, slot, hit.ID)
	case DimensionLecturer:
		return fmt.Sprintf("scheduling conflict: lecturer is already teaching on %s (schedule #%d)", slot, hit.ID)
	default:
		return fmt.Sprintf("scheduling conflict: class already has a lecture on %s (schedule #%d)", slot, hit.ID)
	}
}
