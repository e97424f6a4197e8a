package scheduling

import "github.com/noah-isme/timetable-admin-api/internal/models"

// OperationMode tells the pipeline whether an entry is being created or an
// existing row is being edited. The zero value is a create.
type OperationMode struct {
	edit bool
	id   int64
}

// CreateMode is the mode for new entries.
func CreateMode() OperationMode { return OperationMode{} }

// EditMode is the mode for changes to the stored row id.
func EditMode(id int64) OperationMode { return OperationMode{edit: true, id: id} }

// IsEdit reports whether the mode targets an existing row.
func (m OperationMode) IsEdit() bool { return m.edit }

// ID is the edited row id; zero for creates.
func (m OperationMode) ID() int64 { return m.id }

func (m OperationMode) String() string {
	if m.edit {
		return "edit"
	}
	return "create"
}

// ScopeMode selects which existing entries a proposal is compared against.
type ScopeMode int

const (
	// ScopeNone disables the resource checks.
	ScopeNone ScopeMode = iota
	// ScopePeriod compares against entries whose calendar period overlaps the proposal's.
	ScopePeriod
	// ScopeBatch compares against entries sharing the edited row's batch number.
	ScopeBatch
)

func (m ScopeMode) String() string {
	switch m {
	case ScopePeriod:
		return "period"
	case ScopeBatch:
		return "batch"
	default:
		return "none"
	}
}

// Scope is the comparison universe for one validation run.
type Scope struct {
	Mode    ScopeMode
	TermID  int64
	BatchNo int64
	// Period is the proposal's calendar period; resolved lazily in period mode.
	Period *Period
}

// PeriodScope builds a create-time scope for the given academic calendar.
func PeriodScope(termID int64) Scope {
	return Scope{Mode: ScopePeriod, TermID: termID}
}

// BatchScope builds an edit-time scope for the given batch number.
func BatchScope(batchNo int64) Scope {
	return Scope{Mode: ScopeBatch, BatchNo: batchNo}
}

// ResolveScope applies the create/edit policy. Creates are scoped by calendar
// period overlap on the proposal's sy_term_id. Edits are scoped by the batch
// number frozen on the stored row, never by the submitted one; a stored row
// without a batch number yields ScopeNone.
func ResolveScope(mode OperationMode, proposed models.LecturerSchedule, existing *models.LecturerSchedule) Scope {
	if !mode.IsEdit() {
		return PeriodScope(proposed.SYTermID)
	}
	if existing == nil || existing.BatchNo == nil {
		return Scope{Mode: ScopeNone}
	}
	return BatchScope(*existing.BatchNo)
}
