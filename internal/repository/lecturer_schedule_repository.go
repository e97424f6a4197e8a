package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/scheduling"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
)

const scheduleColumns = "id, lecturer_id, prog_subj_id, room_code, day, start_time, end_time, class_id, sy_term_id, batch_no, created_at, updated_at"

var dimensionColumns = map[scheduling.Dimension]string{
	scheduling.DimensionRoom:     "room_code",
	scheduling.DimensionLecturer: "lecturer_id",
	scheduling.DimensionClass:    "class_id",
}

// LecturerScheduleRepository provides persistence for lecturer timetable entries.
// A repository bound to a transaction through WithTx runs every statement on it.
type LecturerScheduleRepository struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// NewLecturerScheduleRepository creates a new schedule repository.
func NewLecturerScheduleRepository(db *sqlx.DB) *LecturerScheduleRepository {
	return &LecturerScheduleRepository{db: db, ext: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *LecturerScheduleRepository) WithTx(tx *sqlx.Tx) *LecturerScheduleRepository {
	return &LecturerScheduleRepository{db: r.db, ext: tx}
}

// List returns schedules with optional filtering and pagination.
func (r *LecturerScheduleRepository) List(ctx context.Context, filter models.LecturerScheduleFilter) ([]models.LecturerSchedule, int, error) {
	base := "FROM lecturer_schedules WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.LecturerID != 0 {
		conditions = append(conditions, fmt.Sprintf("lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.ClassID != 0 {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SYTermID != 0 {
		conditions = append(conditions, fmt.Sprintf("sy_term_id = $%d", len(args)+1))
		args = append(args, filter.SYTermID)
	}
	if filter.RoomCode != "" {
		conditions = append(conditions, fmt.Sprintf("room_code = $%d", len(args)+1))
		args = append(args, filter.RoomCode)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.BatchNo != nil {
		conditions = append(conditions, fmt.Sprintf("batch_no = $%d", len(args)+1))
		args = append(args, *filter.BatchNo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day":        true,
		"start_time": true,
		"room_code":  true,
		"batch_no":   true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	if sortBy == "day" {
		sortBy = dayOrderExpr
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var schedules []models.LecturerSchedule
	if err := sqlx.SelectContext(ctx, r.ext, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturer schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := sqlx.GetContext(ctx, r.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturer schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *LecturerScheduleRepository) FindByID(ctx context.Context, id int64) (*models.LecturerSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM lecturer_schedules WHERE id = $1", scheduleColumns)
	var sched models.LecturerSchedule
	if err := sqlx.GetContext(ctx, r.ext, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListCandidates returns entries on the same resource and day that a proposal
// must be compared with. Without a batch filter each row carries its calendar dates.
func (r *LecturerScheduleRepository) ListCandidates(ctx context.Context, q scheduling.CandidateQuery) ([]models.ScheduleCandidate, error) {
	column, ok := dimensionColumns[q.Dimension]
	if !ok {
		return nil, fmt.Errorf("unsupported conflict dimension %q", q.Dimension)
	}

	args := []interface{}{q.Value, q.Day}
	var query string
	if q.BatchNo != nil {
		query = fmt.Sprintf("SELECT %s FROM lecturer_schedules s WHERE s.%s = $1 AND s.day = $2 AND s.batch_no = $3", prefixed("s", scheduleColumns), column)
		args = append(args, *q.BatchNo)
	} else {
		query = fmt.Sprintf("SELECT %s, c.start_date AS period_start, c.end_date AS period_end FROM lecturer_schedules s JOIN academic_calendars c ON c.id = s.sy_term_id WHERE s.%s = $1 AND s.day = $2", prefixed("s", scheduleColumns), column)
	}
	if q.ExcludeID != 0 {
		query += fmt.Sprintf(" AND s.id <> $%d", len(args)+1)
		args = append(args, q.ExcludeID)
	}
	query += " ORDER BY s.start_time ASC"

	var candidates []models.ScheduleCandidate
	if err := sqlx.SelectContext(ctx, r.ext, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("list %s conflict candidates: %w", q.Dimension, err)
	}
	return candidates, nil
}

// ListByLecturer returns a lecturer's timetable ordered by day and time.
func (r *LecturerScheduleRepository) ListByLecturer(ctx context.Context, lecturerID int64) ([]models.LecturerSchedule, error) {
	return r.listBy(ctx, "lecturer_id", lecturerID)
}

// ListByClass returns a group's timetable ordered by day and time.
func (r *LecturerScheduleRepository) ListByClass(ctx context.Context, classID int64) ([]models.LecturerSchedule, error) {
	return r.listBy(ctx, "class_id", classID)
}

// ListByRoom returns a room's bookings ordered by day and time.
func (r *LecturerScheduleRepository) ListByRoom(ctx context.Context, roomCode string) ([]models.LecturerSchedule, error) {
	return r.listBy(ctx, "room_code", roomCode)
}

func (r *LecturerScheduleRepository) listBy(ctx context.Context, column string, value interface{}) ([]models.LecturerSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM lecturer_schedules WHERE %s = $1 ORDER BY %s, start_time ASC", scheduleColumns, column, dayOrderExpr)
	var schedules []models.LecturerSchedule
	if err := sqlx.SelectContext(ctx, r.ext, &schedules, query, value); err != nil {
		return nil, fmt.Errorf("list schedules by %s: %w", column, err)
	}
	return schedules, nil
}

// CheckReferences reports which referenced rows exist for a proposed entry.
func (r *LecturerScheduleRepository) CheckReferences(ctx context.Context, entry models.LecturerSchedule) (models.ScheduleReferences, error) {
	const query = `SELECT
	EXISTS (SELECT 1 FROM lecturers WHERE id = $1) AS lecturer,
	EXISTS (SELECT 1 FROM program_subjects WHERE id = $2) AS program_subject,
	EXISTS (SELECT 1 FROM rooms WHERE name = $3) AS room,
	EXISTS (SELECT 1 FROM groups WHERE id = $4) AS class,
	EXISTS (SELECT 1 FROM academic_calendars WHERE id = $5) AS calendar`
	var refs models.ScheduleReferences
	if err := sqlx.GetContext(ctx, r.ext, &refs, query, entry.LecturerID, entry.ProgSubjID, entry.RoomCode, entry.ClassID, entry.SYTermID); err != nil {
		return refs, fmt.Errorf("check schedule references: %w", err)
	}
	return refs, nil
}

// SetLockTimeout bounds how long the current transaction waits for resource locks.
func (r *LecturerScheduleRepository) SetLockTimeout(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	value := fmt.Sprintf("%dms", timeout.Milliseconds())
	if _, err := r.ext.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`, value); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	return nil
}

// LockResources takes transaction-scoped advisory locks on the given resource
// keys in sorted order. Locks are released when the transaction ends.
func (r *LecturerScheduleRepository) LockResources(ctx context.Context, keys []string) error {
	if err := database.LockKeys(ctx, r.ext, keys...); err != nil {
		return fmt.Errorf("lock schedule resources: %w", err)
	}
	return nil
}

// FindPeriod reads a calendar's dates with a share lock, so a concurrent
// calendar edit waits for the transaction that resolved the period. The
// sql.ErrNoRows of an unknown calendar is returned as is.
func (r *LecturerScheduleRepository) FindPeriod(ctx context.Context, calendarID int64) (scheduling.Period, error) {
	var period scheduling.Period
	row := r.ext.QueryRowxContext(ctx, `SELECT start_date, end_date FROM academic_calendars WHERE id = $1 FOR SHARE`, calendarID)
	if err := row.Scan(&period.Start, &period.End); err != nil {
		return scheduling.Period{}, err
	}
	return period, nil
}

// NextBatchNo allocates a fresh batch number.
func (r *LecturerScheduleRepository) NextBatchNo(ctx context.Context) (int64, error) {
	var batchNo int64
	if err := sqlx.GetContext(ctx, r.ext, &batchNo, `SELECT nextval('lecturer_schedule_batch_no_seq')`); err != nil {
		return 0, fmt.Errorf("allocate batch number: %w", err)
	}
	return batchNo, nil
}

// Create stores a new schedule record.
func (r *LecturerScheduleRepository) Create(ctx context.Context, schedule *models.LecturerSchedule) error {
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO lecturer_schedules (lecturer_id, prog_subj_id, room_code, day, start_time, end_time, class_id, sy_term_id, batch_no, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := r.ext.QueryRowxContext(ctx, query,
		schedule.LecturerID, schedule.ProgSubjID, schedule.RoomCode, schedule.Day, schedule.StartTime, schedule.EndTime,
		schedule.ClassID, schedule.SYTermID, schedule.BatchNo, schedule.CreatedAt, schedule.UpdatedAt,
	).Scan(&schedule.ID); err != nil {
		return fmt.Errorf("create lecturer schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule record. batch_no is never written.
func (r *LecturerScheduleRepository) Update(ctx context.Context, schedule *models.LecturerSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturer_schedules SET lecturer_id = $1, prog_subj_id = $2, room_code = $3, day = $4, start_time = $5, end_time = $6, class_id = $7, sy_term_id = $8, updated_at = $9 WHERE id = $10`
	if _, err := r.ext.ExecContext(ctx, query,
		schedule.LecturerID, schedule.ProgSubjID, schedule.RoomCode, schedule.Day, schedule.StartTime, schedule.EndTime,
		schedule.ClassID, schedule.SYTermID, schedule.UpdatedAt, schedule.ID,
	); err != nil {
		return fmt.Errorf("update lecturer schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule by id.
func (r *LecturerScheduleRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ext.ExecContext(ctx, `DELETE FROM lecturer_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lecturer schedule: %w", err)
	}
	return nil
}

const dayOrderExpr = "CASE day WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4 WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6 ELSE 7 END"

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
