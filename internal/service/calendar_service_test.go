package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type mockCalendarRepo struct {
	items     map[int64]*models.AcademicCalendarDetail
	schedules map[int64]int
	finds     int
	nextID    int64
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{items: map[int64]*models.AcademicCalendarDetail{}, schedules: map[int64]int{}}
}

func (m *mockCalendarRepo) List(ctx context.Context, filter models.CalendarFilter) ([]models.AcademicCalendarDetail, int, error) {
	out := make([]models.AcademicCalendarDetail, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, *item)
	}
	return out, len(out), nil
}

func (m *mockCalendarRepo) FindByID(ctx context.Context, id int64) (*models.AcademicCalendarDetail, error) {
	m.finds++
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *item
	return &cp, nil
}

func (m *mockCalendarRepo) ExistsByTermAndYear(ctx context.Context, termID int64, schoolYear string, excludeID int64) (bool, error) {
	for id, item := range m.items {
		if id != excludeID && item.TermID == termID && item.SchoolYear == schoolYear {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCalendarRepo) ExistsByDates(ctx context.Context, start, end time.Time, excludeID int64) (bool, error) {
	for id, item := range m.items {
		if id != excludeID && item.StartDate.Equal(start) && item.EndDate.Equal(end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCalendarRepo) CountSchedules(ctx context.Context, id int64) (int, error) {
	return m.schedules[id], nil
}

func (m *mockCalendarRepo) Create(ctx context.Context, calendar *models.AcademicCalendar) error {
	m.nextID++
	calendar.ID = m.nextID
	m.items[calendar.ID] = &models.AcademicCalendarDetail{AcademicCalendar: *calendar}
	return nil
}

func (m *mockCalendarRepo) Update(ctx context.Context, calendar *models.AcademicCalendar) error {
	current, ok := m.items[calendar.ID]
	if !ok {
		return sql.ErrNoRows
	}
	moved := !current.StartDate.Equal(calendar.StartDate) || !current.EndDate.Equal(calendar.EndDate)
	if moved && m.schedules[calendar.ID] > 0 {
		return &models.CalendarInUseError{CalendarID: calendar.ID, Schedules: m.schedules[calendar.ID]}
	}
	m.items[calendar.ID] = &models.AcademicCalendarDetail{AcademicCalendar: *calendar}
	return nil
}

func (m *mockCalendarRepo) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// memoryCacheRepo keeps JSON payloads in a map, mirroring the Redis repository.
type memoryCacheRepo struct {
	data map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func newCalendarFixture(t *testing.T) (*CalendarService, *mockCalendarRepo, *memoryCacheRepo) {
	t.Helper()
	repo := newMockCalendarRepo()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	return NewCalendarService(repo, cache, registeredValidator(t), zap.NewNop(), time.Hour), repo, cacheRepo
}

func calendarReq(termID int64, year, start, end string) CalendarRequest {
	return CalendarRequest{
		TermID:     termID,
		SchoolYear: year,
		StartDate:  start,
		EndDate:    end,
	}
}

func mustDate(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarServiceCreate(t *testing.T) {
	svc, repo, _ := newCalendarFixture(t)

	calendar, err := svc.Create(context.Background(), calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), calendar.ID)
	assert.Len(t, repo.items, 1)
}

func TestCalendarServiceCreateValidation(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)

	_, err := svc.Create(context.Background(), calendarReq(1, "2025-2027", "2025-08-01", "2025-12-15"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "SchoolYear")

	_, err = svc.Create(context.Background(), calendarReq(1, "2025-2026", "2025-12-15", "2025-08-01"))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "end_date")
}

func TestCalendarServiceCreateDuplicates(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, calendarReq(1, "2025-2026", "2026-01-01", "2026-05-01"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "school_year")

	_, err = svc.Create(ctx, calendarReq(2, "2025-2026", "2025-08-01", "2025-12-15"))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "start_date")
}

func TestCalendarServiceGetUsesCache(t *testing.T) {
	svc, repo, cacheRepo := newCalendarFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)

	calendar, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, calendar.StartDate.Equal(mustDate("2025-08-01")))
	assert.Contains(t, cacheRepo.data, calendarKey(created.ID))

	finds := repo.finds
	again, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, finds, repo.finds)
	assert.True(t, again.EndDate.Equal(calendar.EndDate))
}

func TestCalendarServiceUpdateEvictsCachedCalendar(t *testing.T) {
	svc, _, cacheRepo := newCalendarFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-20"))
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.data, calendarKey(created.ID))

	calendar, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, calendar.EndDate.Equal(mustDate("2025-12-20")))
}

func TestCalendarServiceGetNotFound(t *testing.T) {
	svc, _, _ := newCalendarFixture(t)

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCalendarServiceUpdateRefusesDateChangeWhileScheduled(t *testing.T) {
	svc, repo, _ := newCalendarFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	repo.schedules[created.ID] = 4

	_, err = svc.Update(ctx, created.ID, calendarReq(1, "2025-2026", "2025-08-01", "2026-02-15"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "start_date")
	assert.Contains(t, appErr.Fields, "end_date")
	assert.True(t, repo.items[created.ID].EndDate.Equal(mustDate("2025-12-15")))
}

func TestCalendarServiceUpdateKeepsDatesWhileScheduled(t *testing.T) {
	svc, repo, _ := newCalendarFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	repo.schedules[created.ID] = 4

	updated, err := svc.Update(ctx, created.ID, calendarReq(2, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.TermID)
}

func TestCalendarServiceDeleteBlockedBySchedules(t *testing.T) {
	svc, repo, _ := newCalendarFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, calendarReq(1, "2025-2026", "2025-08-01", "2025-12-15"))
	require.NoError(t, err)
	repo.schedules[created.ID] = 2

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	repo.schedules[created.ID] = 0
	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Empty(t, repo.items)
}

func TestValidSchoolYear(t *testing.T) {
	assert.True(t, validSchoolYear("2025-2026"))
	assert.False(t, validSchoolYear("2025-2025"))
	assert.False(t, validSchoolYear("2025/2026"))
	assert.False(t, validSchoolYear("25-26"))
}
