package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/scheduling"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

// ScheduleTxStore is the schedule repository bound to one transaction.
type ScheduleTxStore interface {
	scheduling.ScheduleStore
	scheduling.CalendarReader
	CheckReferences(ctx context.Context, entry models.LecturerSchedule) (models.ScheduleReferences, error)
	SetLockTimeout(ctx context.Context, timeout time.Duration) error
	LockResources(ctx context.Context, keys []string) error
	NextBatchNo(ctx context.Context) (int64, error)
	Create(ctx context.Context, schedule *models.LecturerSchedule) error
	Update(ctx context.Context, schedule *models.LecturerSchedule) error
}

// ScheduleTxBinder binds the schedule repository to a transaction.
type ScheduleTxBinder func(tx *sqlx.Tx) ScheduleTxStore

type lecturerScheduleRepository interface {
	scheduling.ScheduleStore
	scheduling.CalendarReader
	CheckReferences(ctx context.Context, entry models.LecturerSchedule) (models.ScheduleReferences, error)
	List(ctx context.Context, filter models.LecturerScheduleFilter) ([]models.LecturerSchedule, int, error)
	ListByLecturer(ctx context.Context, lecturerID int64) ([]models.LecturerSchedule, error)
	ListByClass(ctx context.Context, classID int64) ([]models.LecturerSchedule, error)
	ListByRoom(ctx context.Context, roomCode string) ([]models.LecturerSchedule, error)
	Delete(ctx context.Context, id int64) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleRequest is the payload for creating or editing a lecturer schedule.
// batch_no is assigned by the server and cannot be submitted.
type ScheduleRequest struct {
	LecturerID int64            `json:"lecturer_id" validate:"required,gt=0"`
	ProgSubjID int64            `json:"prog_subj_id" validate:"required,gt=0"`
	RoomCode   string           `json:"room_code" validate:"required,max=64"`
	Day        models.Weekday   `json:"day" validate:"required,weekday"`
	StartTime  models.ClockTime `json:"start_time"`
	EndTime    models.ClockTime `json:"end_time"`
	ClassID    int64            `json:"class_id" validate:"required,gt=0"`
	SYTermID   int64            `json:"sy_term_id" validate:"required,gt=0"`
}

// ValidateScheduleRequest is a dry-run request. A non-zero ScheduleID checks the payload as an edit of that row.
type ValidateScheduleRequest struct {
	ScheduleRequest
	ScheduleID int64 `json:"schedule_id" validate:"gte=0"`
}

// BatchScheduleRequest creates several entries under one new batch number.
type BatchScheduleRequest struct {
	Items []ScheduleRequest `json:"items" validate:"required,min=1,dive"`
}

// LecturerScheduleServiceConfig tunes write behaviour.
type LecturerScheduleServiceConfig struct {
	MaxBatchSize int
	LockTimeout  time.Duration
}

// LecturerScheduleService validates and persists lecturer timetable entries.
// Every write takes advisory locks on the touched room, lecturer and class
// before validating, so concurrent writers on a shared resource serialise.
type LecturerScheduleService struct {
	repo      lecturerScheduleRepository
	bind      ScheduleTxBinder
	tx        txProvider
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       LecturerScheduleServiceConfig
}

// NewLecturerScheduleService wires the schedule service.
func NewLecturerScheduleService(
	repo lecturerScheduleRepository,
	bind ScheduleTxBinder,
	tx txProvider,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg LecturerScheduleServiceConfig,
) *LecturerScheduleService {
	if validate == nil {
		validate = mustValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	return &LecturerScheduleService{
		repo:      repo,
		bind:      bind,
		tx:        tx,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns paginated schedules.
func (s *LecturerScheduleService) List(ctx context.Context, filter models.LecturerScheduleFilter) ([]models.LecturerSchedule, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list schedules")
	}
	return schedules, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one schedule.
func (s *LecturerScheduleService) Get(ctx context.Context, id int64) (*models.LecturerSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "schedule not found", "failed to load schedule")
	}
	return schedule, nil
}

// ListByLecturer returns a lecturer's weekly timetable.
func (s *LecturerScheduleService) ListByLecturer(ctx context.Context, lecturerID int64) ([]models.LecturerSchedule, error) {
	schedules, err := s.repo.ListByLecturer(ctx, lecturerID)
	if err != nil {
		return nil, internalError(err, "failed to list lecturer timetable")
	}
	return schedules, nil
}

// ListByClass returns a group's weekly timetable.
func (s *LecturerScheduleService) ListByClass(ctx context.Context, classID int64) ([]models.LecturerSchedule, error) {
	schedules, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, internalError(err, "failed to list class timetable")
	}
	return schedules, nil
}

// ListByRoom returns a room's weekly bookings.
func (s *LecturerScheduleService) ListByRoom(ctx context.Context, roomCode string) ([]models.LecturerSchedule, error) {
	schedules, err := s.repo.ListByRoom(ctx, roomCode)
	if err != nil {
		return nil, internalError(err, "failed to list room bookings")
	}
	return schedules, nil
}

// Create stores a single entry after checking it against every calendar whose period overlaps its own.
func (s *LecturerScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.LecturerSchedule, error) {
	entry, err := s.entryFrom(req)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, "schedule_create", func(store ScheduleTxStore) error {
		if err := s.prepare(ctx, store, entry); err != nil {
			return err
		}
		if err := s.validate(ctx, store, entry, scheduling.CreateMode()); err != nil {
			return err
		}
		if err := store.Create(ctx, &entry); err != nil {
			return writeError(err, "failed to create schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule created",
		zap.Int64("schedule_id", entry.ID),
		zap.Int64("lecturer_id", entry.LecturerID),
		zap.String("room_code", entry.RoomCode),
		zap.String("day", string(entry.Day)),
	)
	return &entry, nil
}

// Update edits an entry. Conflicts are only checked within the row's stored batch.
func (s *LecturerScheduleService) Update(ctx context.Context, id int64, req ScheduleRequest) (*models.LecturerSchedule, error) {
	entry, err := s.entryFrom(req)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, "schedule_update", func(store ScheduleTxStore) error {
		existing, err := store.FindByID(ctx, id)
		if err != nil {
			return lookupError(err, "schedule not found", "failed to load schedule")
		}
		entry.ID = existing.ID
		entry.BatchNo = existing.BatchNo
		entry.CreatedAt = existing.CreatedAt

		if err := s.prepare(ctx, store, entry); err != nil {
			return err
		}
		if err := s.validate(ctx, store, entry, scheduling.EditMode(id)); err != nil {
			return err
		}
		if err := store.Update(ctx, &entry); err != nil {
			return writeError(err, "failed to update schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule updated", zap.Int64("schedule_id", entry.ID))
	return &entry, nil
}

// Delete removes an entry. Deletion never conflicts.
func (s *LecturerScheduleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "schedule not found", "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete schedule")
	}
	s.logger.Info("schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

// CreateBatch stores all items under one freshly allocated batch number, or none of them.
// Items are checked in order, so a later item also collides with earlier ones.
func (s *LecturerScheduleService) CreateBatch(ctx context.Context, req BatchScheduleRequest) (*models.ScheduleBatch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid schedule batch payload")
	}
	if len(req.Items) > s.cfg.MaxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("batch exceeds %d items", s.cfg.MaxBatchSize)).
			WithFields(map[string]string{"items": fmt.Sprintf("at most %d items", s.cfg.MaxBatchSize)})
	}

	entries := make([]models.LecturerSchedule, len(req.Items))
	var keys []string
	for i, item := range req.Items {
		entry, err := s.entryFrom(item)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
		keys = append(keys, lockKeys(entry)...)
	}

	batch := &models.ScheduleBatch{}
	err := s.inTx(ctx, "schedule_batch_create", func(store ScheduleTxStore) error {
		if err := store.LockResources(ctx, keys); err != nil {
			return writeError(err, "failed to lock schedule resources")
		}
		batchNo, err := store.NextBatchNo(ctx)
		if err != nil {
			return internalError(err, "failed to allocate batch number")
		}

		var rejections []models.BatchItemRejection
		for i := range entries {
			entries[i].BatchNo = &batchNo
			rejection, err := s.admitBatchItem(ctx, store, i, &entries[i])
			if err != nil {
				return err
			}
			if rejection != nil {
				rejections = append(rejections, *rejection)
			}
		}
		if len(rejections) > 0 {
			return batchRejectionError(rejections)
		}

		batch.BatchNo = batchNo
		batch.Schedules = entries
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule batch created", zap.Int64("batch_no", batch.BatchNo), zap.Int("items", len(batch.Schedules)))
	return batch, nil
}

// Validate runs the full check without writing or locking.
func (s *LecturerScheduleService) Validate(ctx context.Context, req ValidateScheduleRequest) (*models.ScheduleValidationReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid schedule payload")
	}
	entry, err := s.entryFrom(req.ScheduleRequest)
	if err != nil {
		return nil, err
	}

	mode := scheduling.CreateMode()
	if req.ScheduleID != 0 {
		mode = scheduling.EditMode(req.ScheduleID)
		existing, err := s.repo.FindByID(ctx, req.ScheduleID)
		if err != nil {
			return nil, lookupError(err, "schedule not found", "failed to load schedule")
		}
		entry.ID = existing.ID
		entry.BatchNo = existing.BatchNo
	}

	refs, err := s.repo.CheckReferences(ctx, entry)
	if err != nil {
		return nil, internalError(err, "failed to check schedule references")
	}
	if missing := refs.Missing(); len(missing) > 0 {
		return &models.ScheduleValidationReport{Valid: false, Scope: scheduling.ScopeNone.String(), Errors: missing}, nil
	}

	result, err := scheduling.NewValidator(s.repo, s.repo, s.logger, s.metrics).Validate(ctx, entry, mode)
	if err != nil {
		return nil, checkError(err)
	}
	return &models.ScheduleValidationReport{
		Valid:     result.OK(),
		Scope:     result.Scope.Mode.String(),
		Errors:    result.Errors(),
		Conflicts: conflictsOf(result),
	}, nil
}

func (s *LecturerScheduleService) admitBatchItem(ctx context.Context, store ScheduleTxStore, index int, entry *models.LecturerSchedule) (*models.BatchItemRejection, error) {
	refs, err := store.CheckReferences(ctx, *entry)
	if err != nil {
		return nil, internalError(err, "failed to check schedule references")
	}
	if missing := refs.Missing(); len(missing) > 0 {
		return &models.BatchItemRejection{Index: index, Fields: missing}, nil
	}

	result, err := scheduling.NewValidator(store, store, s.logger, s.metrics).Validate(ctx, *entry, scheduling.CreateMode())
	if err != nil {
		return nil, checkError(err)
	}
	if !result.OK() {
		return &models.BatchItemRejection{Index: index, Fields: result.Errors(), Conflicts: conflictsOf(result)}, nil
	}

	if err := store.Create(ctx, entry); err != nil {
		return nil, writeError(err, "failed to create schedule")
	}
	return nil, nil
}

// prepare rejects dangling references and serialises on the entry's resources.
func (s *LecturerScheduleService) prepare(ctx context.Context, store ScheduleTxStore, entry models.LecturerSchedule) error {
	refs, err := store.CheckReferences(ctx, entry)
	if err != nil {
		return internalError(err, "failed to check schedule references")
	}
	if missing := refs.Missing(); len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "schedule references unknown records").WithFields(missing)
	}
	if err := store.LockResources(ctx, lockKeys(entry)); err != nil {
		return writeError(err, "failed to lock schedule resources")
	}
	return nil
}

func (s *LecturerScheduleService) validate(ctx context.Context, store ScheduleTxStore, entry models.LecturerSchedule, mode scheduling.OperationMode) error {
	result, err := scheduling.NewValidator(store, store, s.logger, s.metrics).Validate(ctx, entry, mode)
	if err != nil {
		return checkError(err)
	}
	if !result.OK() {
		return rejectionError(result)
	}
	return nil
}

func (s *LecturerScheduleService) inTx(ctx context.Context, label string, fn func(store ScheduleTxStore) error) error {
	if s.tx == nil || s.bind == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	start := time.Now()
	err := database.WithTx(ctx, s.tx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sqlx.Tx) error {
		store := s.bind(tx)
		if err := store.SetLockTimeout(ctx, s.cfg.LockTimeout); err != nil {
			return internalError(err, "failed to configure lock timeout")
		}
		return fn(store)
	})
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if err != nil {
		return writeError(err, "failed to store schedule")
	}
	return nil
}

func (s *LecturerScheduleService) entryFrom(req ScheduleRequest) (models.LecturerSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.LecturerSchedule{}, payloadError(err, "invalid schedule payload")
	}
	day, err := models.ParseWeekday(string(req.Day))
	if err != nil {
		return models.LecturerSchedule{}, appErrors.Clone(appErrors.ErrValidation, "invalid schedule payload").
			WithFields(map[string]string{"day": err.Error()})
	}
	return models.LecturerSchedule{
		LecturerID: req.LecturerID,
		ProgSubjID: req.ProgSubjID,
		RoomCode:   req.RoomCode,
		Day:        day,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		ClassID:    req.ClassID,
		SYTermID:   req.SYTermID,
	}, nil
}

func lockKeys(entry models.LecturerSchedule) []string {
	keys := make([]string, 0, len(scheduling.Dimensions))
	for _, dim := range scheduling.Dimensions {
		keys = append(keys, dim.LockKey(dim.ValueOf(entry)))
	}
	return keys
}

// checkError maps a failure raised while running the checks, not a rule violation.
func checkError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return writeError(err, "failed to check schedule conflicts")
}

// rejectionError turns a rejected result into a 400 for a bad time range or a 409 for collisions.
func rejectionError(result scheduling.Result) *appErrors.Error {
	base := appErrors.ErrConflict
	if result.OnlyTimeRange() {
		base = appErrors.ErrValidation
	}
	message := result.Violations[0].Message
	if len(result.Violations) > 1 {
		message = "scheduling conflict on " + joinFields(result.Errors())
	}
	detail := &models.ScheduleConflictError{
		Message:   message,
		Fields:    result.Errors(),
		Conflicts: conflictsOf(result),
	}
	return appErrors.Wrap(detail, base.Code, base.Status, message).WithFields(result.Errors())
}

func batchRejectionError(rejections []models.BatchItemRejection) *appErrors.Error {
	base := appErrors.ErrValidation
	fields := map[string]string{}
	for _, r := range rejections {
		if len(r.Conflicts) > 0 {
			base = appErrors.ErrConflict
		}
		for field, message := range r.Fields {
			fields[fmt.Sprintf("items[%d].%s", r.Index, field)] = message
		}
	}
	message := fmt.Sprintf("%d of the batch items were rejected", len(rejections))
	detail := &models.ScheduleBatchError{Message: message, Rejections: rejections}
	return appErrors.Wrap(detail, base.Code, base.Status, message).WithFields(fields)
}

func conflictsOf(result scheduling.Result) []models.ScheduleConflict {
	var out []models.ScheduleConflict
	for _, v := range result.Violations {
		for _, c := range v.Conflicts {
			out = append(out, models.ScheduleConflict{
				ScheduleID: c.ID,
				Field:      v.Field,
				LecturerID: c.LecturerID,
				RoomCode:   c.RoomCode,
				ClassID:    c.ClassID,
				SYTermID:   c.SYTermID,
				BatchNo:    c.BatchNo,
				Day:        c.Day,
				StartTime:  c.StartTime,
				EndTime:    c.EndTime,
			})
		}
	}
	return out
}

func joinFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
