package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/scheduling"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

const (
	termA int64 = 1
	termB int64 = 2
)

func TestLecturerScheduleServiceCreateAcrossCalendars(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit()
	first, err := svc.Create(ctx, scheduleReq("R101", 1, 1, termA, "Monday", "09:00", "10:00"))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Nil(t, first.BatchNo)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(ctx, scheduleReq("R101", 2, 2, termA, "Monday", "09:30", "10:30"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "room_code")
	assert.NotContains(t, appErr.Fields, "lecturer_id")
	var detail *models.ScheduleConflictError
	require.True(t, errors.As(err, &detail))
	require.Len(t, detail.Conflicts, 1)
	assert.Equal(t, first.ID, detail.Conflicts[0].ScheduleID)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err = svc.Create(ctx, scheduleReq("R101", 2, 2, termB, "Monday", "09:30", "10:30"))
	require.NoError(t, err)

	assert.Equal(t, 2, store.creates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// evictFailingCache keeps entries but cannot delete them, leaving stale data behind.
type evictFailingCache struct {
	*memoryCacheRepo
}

func (evictFailingCache) Delete(ctx context.Context, keys ...string) error {
	return errors.New("redis: connection refused")
}

func TestLecturerScheduleServiceCreateIgnoresStaleCalendarCache(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	ctx := context.Background()

	cacheRepo := evictFailingCache{newMemoryCacheRepo()}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	calendars := NewCalendarService(newMockCalendarRepo(), cache, registeredValidator(t), zap.NewNop(), time.Hour)
	first, err := calendars.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	require.Equal(t, termA, first.ID)
	_, err = calendars.Create(ctx, calendarReq(2, "2025-2026", "2026-01-01", "2026-05-01"))
	require.NoError(t, err)
	_, err = calendars.Get(ctx, termA)
	require.NoError(t, err)

	extended, err := calendars.Update(ctx, termA, calendarReq(1, "2025-2026", "2025-08-01", "2026-02-15"))
	require.NoError(t, err)
	cached, err := calendars.Get(ctx, termA)
	require.NoError(t, err)
	require.True(t, cached.EndDate.Equal(mustDate("2025-12-15")), "cache should still hold the old dates")

	// The committed row carries the extended dates.
	store.periods[termA] = scheduling.Period{Start: extended.StartDate, End: extended.EndDate}
	store.seed(models.LecturerSchedule{
		ID: 1, LecturerID: 1, ProgSubjID: 1, RoomCode: "R101", Day: models.Monday,
		StartTime: models.MustClockTime("09:00"), EndTime: models.MustClockTime("10:00"),
		ClassID: 1, SYTermID: termB,
	})

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(ctx, scheduleReq("R101", 2, 2, termA, "Monday", "09:30", "10:30"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "room_code")
	assert.Equal(t, 1, store.periodReads)
	assert.Zero(t, store.creates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateLocksTouchedResources(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Create(context.Background(), scheduleReq("R101", 4, 9, termA, "friday", "13:00", "14:00"))
	require.NoError(t, err)

	require.Len(t, store.locked, 1)
	assert.ElementsMatch(t, []string{"room:R101", "lecturer:4", "class:9"}, store.locked[0])
	assert.Equal(t, time.Second, store.lockTimeout)
	assert.Equal(t, models.Friday, store.rows[1].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateRejectsTimeRange(t *testing.T) {
	svc, store, mock, metrics := newScheduleServiceFixture(t)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Create(context.Background(), scheduleReq("R101", 1, 1, termA, "Monday", "10:00", "10:00"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{"end_time"}, keysOf(appErr.Fields))
	assert.Zero(t, store.creates)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.validations.WithLabelValues("create", "rejected")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateRejectsUnknownReferences(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	store.refs = &models.ScheduleReferences{Lecturer: true, ProgramSubject: true, Room: false, Class: true, Calendar: true}

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Create(context.Background(), scheduleReq("R404", 1, 1, termA, "Monday", "09:00", "10:00"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "room not found", appErr.Fields["room_code"])
	assert.Empty(t, store.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateInvalidPayload(t *testing.T) {
	svc, _, mock, _ := newScheduleServiceFixture(t)

	req := scheduleReq("", 1, 1, termA, "Funday", "09:00", "10:00")
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "RoomCode")
	assert.Contains(t, appErr.Fields, "Day")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateLockTimeout(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	store.lockErr = &pq.Error{Code: "55P03", Message: "lock not available"}

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Create(context.Background(), scheduleReq("R101", 1, 1, termA, "Monday", "09:00", "10:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceUpdateBatchScoped(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	batch := int64(3)
	store.seed(models.LecturerSchedule{ID: 7, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Tuesday,
		StartTime: models.MustClockTime("13:00"), EndTime: models.MustClockTime("14:00"), BatchNo: &batch})
	store.seed(models.LecturerSchedule{ID: 9, LecturerID: 1, ProgSubjID: 2, RoomCode: "R2", ClassID: 2, SYTermID: termB, Day: models.Tuesday,
		StartTime: models.MustClockTime("13:45"), EndTime: models.MustClockTime("14:15"), BatchNo: &batch})

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Update(context.Background(), 7, scheduleReq("R1", 1, 1, termA, "Tuesday", "13:30", "14:30"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, []string{"lecturer_id"}, keysOf(appErr.Fields))
	assert.Zero(t, store.updates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceUpdateIgnoresOtherBatches(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	batch, other := int64(3), int64(4)
	store.seed(models.LecturerSchedule{ID: 7, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Tuesday,
		StartTime: models.MustClockTime("13:00"), EndTime: models.MustClockTime("14:00"), BatchNo: &batch})
	store.seed(models.LecturerSchedule{ID: 10, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Tuesday,
		StartTime: models.MustClockTime("13:30"), EndTime: models.MustClockTime("14:30"), BatchNo: &other})

	mock.ExpectBegin()
	mock.ExpectCommit()
	updated, err := svc.Update(context.Background(), 7, scheduleReq("R1", 1, 1, termA, "Tuesday", "13:00", "14:30"))
	require.NoError(t, err)
	require.NotNil(t, updated.BatchNo)
	assert.Equal(t, batch, *updated.BatchNo)
	assert.Equal(t, models.MustClockTime("14:30"), store.rows[7].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceUpdateWithoutBatchSkipsChecks(t *testing.T) {
	svc, store, mock, metrics := newScheduleServiceFixture(t)
	batch := int64(5)
	store.seed(models.LecturerSchedule{ID: 7, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Monday,
		StartTime: models.MustClockTime("08:00"), EndTime: models.MustClockTime("09:00")})
	store.seed(models.LecturerSchedule{ID: 8, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Monday,
		StartTime: models.MustClockTime("08:00"), EndTime: models.MustClockTime("09:00"), BatchNo: &batch})

	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Update(context.Background(), 7, scheduleReq("R1", 1, 1, termA, "Monday", "08:30", "09:30"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.updates)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.skippedChecks.WithLabelValues("missing_batch_no")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceUpdateNotFound(t *testing.T) {
	svc, _, mock, _ := newScheduleServiceFixture(t)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Update(context.Background(), 404, scheduleReq("R1", 1, 1, termA, "Monday", "08:00", "09:00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateBatch(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	store.nextBatch = 41

	mock.ExpectBegin()
	mock.ExpectCommit()
	batch, err := svc.CreateBatch(context.Background(), BatchScheduleRequest{Items: []ScheduleRequest{
		scheduleReq("R1", 1, 1, termA, "Monday", "08:00", "09:00"),
		scheduleReq("R1", 1, 1, termA, "Monday", "09:00", "10:00"),
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(42), batch.BatchNo)
	require.Len(t, batch.Schedules, 2)
	for _, entry := range batch.Schedules {
		require.NotNil(t, entry.BatchNo)
		assert.Equal(t, int64(42), *entry.BatchNo)
	}
	require.Len(t, store.locked, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateBatchIsAllOrNothing(t *testing.T) {
	svc, _, mock, _ := newScheduleServiceFixture(t)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.CreateBatch(context.Background(), BatchScheduleRequest{Items: []ScheduleRequest{
		scheduleReq("R1", 1, 1, termA, "Monday", "08:00", "09:00"),
		scheduleReq("R1", 2, 2, termA, "Monday", "08:30", "09:30"),
		scheduleReq("R2", 3, 3, termA, "Monday", "11:00", "10:00"),
	}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "items[1].room_code")
	assert.Contains(t, appErr.Fields, "items[2].end_time")
	assert.NotContains(t, appErr.Fields, "items[0].room_code")

	var detail *models.ScheduleBatchError
	require.True(t, errors.As(err, &detail))
	assert.Len(t, detail.Rejections, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceCreateBatchTooLarge(t *testing.T) {
	svc, _, mock, _ := newScheduleServiceFixture(t)

	items := make([]ScheduleRequest, 4)
	for i := range items {
		items[i] = scheduleReq("R1", 1, 1, termA, "Monday", "08:00", "09:00")
	}
	_, err := svc.CreateBatch(context.Background(), BatchScheduleRequest{Items: items})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceValidateDryRun(t *testing.T) {
	svc, store, mock, _ := newScheduleServiceFixture(t)
	store.seed(models.LecturerSchedule{ID: 3, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Monday,
		StartTime: models.MustClockTime("08:00"), EndTime: models.MustClockTime("09:00")})

	report, err := svc.Validate(context.Background(), ValidateScheduleRequest{
		ScheduleRequest: scheduleReq("R1", 1, 2, termA, "Monday", "08:30", "09:30"),
	})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, "period", report.Scope)
	assert.ElementsMatch(t, []string{"room_code", "lecturer_id"}, keysOf(report.Errors))
	assert.Len(t, report.Conflicts, 2)
	assert.Zero(t, store.creates)
	assert.Empty(t, store.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLecturerScheduleServiceValidateDryRunEditExcludesSelf(t *testing.T) {
	svc, store, _, _ := newScheduleServiceFixture(t)
	batch := int64(2)
	store.seed(models.LecturerSchedule{ID: 3, LecturerID: 1, ProgSubjID: 1, RoomCode: "R1", ClassID: 1, SYTermID: termA, Day: models.Monday,
		StartTime: models.MustClockTime("08:00"), EndTime: models.MustClockTime("09:00"), BatchNo: &batch})

	report, err := svc.Validate(context.Background(), ValidateScheduleRequest{
		ScheduleRequest: scheduleReq("R1", 1, 1, termA, "Monday", "08:15", "09:15"),
		ScheduleID:      3,
	})
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, "batch", report.Scope)
}

func TestLecturerScheduleServiceDelete(t *testing.T) {
	svc, store, _, _ := newScheduleServiceFixture(t)
	store.seed(models.LecturerSchedule{ID: 3, RoomCode: "R1", Day: models.Monday})

	require.NoError(t, svc.Delete(context.Background(), 3))
	_, ok := store.rows[3]
	assert.False(t, ok)

	err := svc.Delete(context.Background(), 3)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

func newScheduleServiceFixture(t *testing.T) (*LecturerScheduleService, *fakeScheduleStore, sqlmock.Sqlmock, *MetricsService) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := newFakeScheduleStore()
	metrics := NewMetricsService()
	svc := NewLecturerScheduleService(
		store,
		func(*sqlx.Tx) ScheduleTxStore { return store },
		sqlx.NewDb(db, "sqlmock"),
		registeredValidator(t),
		metrics,
		zap.NewNop(),
		LecturerScheduleServiceConfig{MaxBatchSize: 3, LockTimeout: time.Second},
	)
	return svc, store, mock, metrics
}

func scheduleReq(room string, lecturerID, classID, termID int64, day, start, end string) ScheduleRequest {
	return ScheduleRequest{
		LecturerID: lecturerID,
		ProgSubjID: 1,
		RoomCode:   room,
		Day:        models.Weekday(day),
		StartTime:  models.MustClockTime(start),
		EndTime:    models.MustClockTime(end),
		ClassID:    classID,
		SYTermID:   termID,
	}
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fakeScheduleStore is an in-memory schedule table and calendar reader. It is
// not transactional: writes made before a rollback stay visible.
type fakeScheduleStore struct {
	rows        map[int64]models.LecturerSchedule
	periods     map[int64]scheduling.Period
	refs        *models.ScheduleReferences
	nextID      int64
	nextBatch   int64
	lockErr     error
	lockTimeout time.Duration
	locked      [][]string
	periodReads int
	creates     int
	updates     int
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		rows: map[int64]models.LecturerSchedule{},
		periods: map[int64]scheduling.Period{
			termA: {Start: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)},
			termB: {Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func (f *fakeScheduleStore) seed(row models.LecturerSchedule) {
	f.rows[row.ID] = row
	if row.ID > f.nextID {
		f.nextID = row.ID
	}
}

func (f *fakeScheduleStore) FindByID(ctx context.Context, id int64) (*models.LecturerSchedule, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &row, nil
}

func (f *fakeScheduleStore) ListCandidates(ctx context.Context, q scheduling.CandidateQuery) ([]models.ScheduleCandidate, error) {
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.ScheduleCandidate
	for _, id := range ids {
		row := f.rows[id]
		if row.ID == q.ExcludeID || row.Day != q.Day || q.Dimension.ValueOf(row) != q.Value {
			continue
		}
		candidate := models.ScheduleCandidate{LecturerSchedule: row}
		if q.BatchNo != nil {
			if row.BatchNo == nil || *row.BatchNo != *q.BatchNo {
				continue
			}
		} else if period, ok := f.periods[row.SYTermID]; ok {
			start, end := period.Start, period.End
			candidate.PeriodStart, candidate.PeriodEnd = &start, &end
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (f *fakeScheduleStore) FindPeriod(ctx context.Context, calendarID int64) (scheduling.Period, error) {
	f.periodReads++
	period, ok := f.periods[calendarID]
	if !ok {
		return scheduling.Period{}, sql.ErrNoRows
	}
	return period, nil
}

func (f *fakeScheduleStore) CheckReferences(ctx context.Context, entry models.LecturerSchedule) (models.ScheduleReferences, error) {
	if f.refs != nil {
		return *f.refs, nil
	}
	return models.ScheduleReferences{Lecturer: true, ProgramSubject: true, Room: true, Class: true, Calendar: true}, nil
}

func (f *fakeScheduleStore) SetLockTimeout(ctx context.Context, timeout time.Duration) error {
	f.lockTimeout = timeout
	return nil
}

func (f *fakeScheduleStore) LockResources(ctx context.Context, keys []string) error {
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locked = append(f.locked, append([]string(nil), keys...))
	return nil
}

func (f *fakeScheduleStore) NextBatchNo(ctx context.Context) (int64, error) {
	f.nextBatch++
	return f.nextBatch, nil
}

func (f *fakeScheduleStore) Create(ctx context.Context, schedule *models.LecturerSchedule) error {
	f.nextID++
	schedule.ID = f.nextID
	f.rows[schedule.ID] = *schedule
	f.creates++
	return nil
}

func (f *fakeScheduleStore) Update(ctx context.Context, schedule *models.LecturerSchedule) error {
	f.rows[schedule.ID] = *schedule
	f.updates++
	return nil
}

func (f *fakeScheduleStore) List(ctx context.Context, filter models.LecturerScheduleFilter) ([]models.LecturerSchedule, int, error) {
	out := make([]models.LecturerSchedule, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, len(out), nil
}

func (f *fakeScheduleStore) ListByLecturer(ctx context.Context, lecturerID int64) ([]models.LecturerSchedule, error) {
	return nil, nil
}

func (f *fakeScheduleStore) ListByClass(ctx context.Context, classID int64) ([]models.LecturerSchedule, error) {
	return nil, nil
}

func (f *fakeScheduleStore) ListByRoom(ctx context.Context, roomCode string) ([]models.LecturerSchedule, error) {
	return nil, nil
}

func (f *fakeScheduleStore) Delete(ctx context.Context, id int64) error {
	delete(f.rows, id)
	return nil
}
