package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

func TestCalendarRepositoryExistsByTermAndYear(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM academic_calendars WHERE term_id = $1 AND school_year = $2 AND id <> $3 LIMIT 1")).
		WithArgs(int64(1), "2025-2026", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByTermAndYear(context.Background(), 1, "2025-2026", 4)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryExistsByDatesNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM academic_calendars WHERE start_date = $1 AND end_date = $2 LIMIT 1")).
		WithArgs(start, end).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByDates(context.Background(), start, end, 0)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryFindByIDIncludesTermName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM academic_calendars c JOIN terms t ON t.id = c.term_id WHERE c.id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "term_id", "school_year", "start_date", "end_date", "created_at", "updated_at", "term_name"}).
			AddRow(2, 1, "2025-2026", start, end, time.Now(), time.Now(), "2nd Semester"))

	calendar, err := repo.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "2nd Semester", calendar.TermName)
	assert.True(t, end.Equal(calendar.EndDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	calendar := &models.AcademicCalendar{
		TermID:     1,
		SchoolYear: "2025-2026",
		StartDate:  time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO academic_calendars")).
		WithArgs(int64(1), "2025-2026", calendar.StartDate, calendar.EndDate, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	require.NoError(t, repo.Create(context.Background(), calendar))
	assert.Equal(t, int64(3), calendar.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryCountSchedules(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lecturer_schedules WHERE sy_term_id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	total, err := repo.CountSchedules(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryUpdateRefusesMovingScheduledDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT start_date, end_date FROM academic_calendars WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"start_date", "end_date"}).AddRow(start, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lecturer_schedules WHERE sy_term_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.AcademicCalendar{
		ID: 1, TermID: 1, SchoolYear: "2025-2026",
		StartDate: start, EndDate: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
	})
	var inUse *models.CalendarInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 3, inUse.Schedules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryUpdateSameDatesSkipsUsageCheck(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"start_date", "end_date"}).AddRow(start, end))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_calendars SET term_id = $1, school_year = $2, start_date = $3, end_date = $4, updated_at = $5 WHERE id = $6")).
		WithArgs(int64(2), "2025-2026", start, end, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.AcademicCalendar{ID: 1, TermID: 2, SchoolYear: "2025-2026", StartDate: start, EndDate: end})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
