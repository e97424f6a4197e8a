package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
)

const calendarColumns = "c.id, c.term_id, c.school_year, c.start_date, c.end_date, c.created_at, c.updated_at"

// CalendarRepository persists academic calendars.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// List returns calendars matching filters together with their term names.
func (r *CalendarRepository) List(ctx context.Context, filter models.CalendarFilter) ([]models.AcademicCalendarDetail, int, error) {
	base := "FROM academic_calendars c JOIN terms t ON t.id = c.term_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != 0 {
		conditions = append(conditions, fmt.Sprintf("c.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("c.school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"start_date":  "c.start_date",
		"end_date":    "c.end_date",
		"school_year": "c.school_year",
		"created_at":  "c.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "c.start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s, t.name AS term_name %s ORDER BY %s %s LIMIT %d OFFSET %d", calendarColumns, base, column, order, size, offset)
	var calendars []models.AcademicCalendarDetail
	if err := r.db.SelectContext(ctx, &calendars, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list academic calendars: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count academic calendars: %w", err)
	}

	return calendars, total, nil
}

// FindByID loads a calendar with its term name.
func (r *CalendarRepository) FindByID(ctx context.Context, id int64) (*models.AcademicCalendarDetail, error) {
	query := fmt.Sprintf("SELECT %s, t.name AS term_name FROM academic_calendars c JOIN terms t ON t.id = c.term_id WHERE c.id = $1", calendarColumns)
	var calendar models.AcademicCalendarDetail
	if err := r.db.GetContext(ctx, &calendar, query, id); err != nil {
		return nil, err
	}
	return &calendar, nil
}

// ExistsByTermAndYear reports whether the term already has a calendar in the school year.
func (r *CalendarRepository) ExistsByTermAndYear(ctx context.Context, termID int64, schoolYear string, excludeID int64) (bool, error) {
	return r.exists(ctx, "term_id = $1 AND school_year = $2", excludeID, termID, schoolYear)
}

// ExistsByDates reports whether another calendar spans exactly the same dates.
func (r *CalendarRepository) ExistsByDates(ctx context.Context, start, end time.Time, excludeID int64) (bool, error) {
	return r.exists(ctx, "start_date = $1 AND end_date = $2", excludeID, start, end)
}

func (r *CalendarRepository) exists(ctx context.Context, where string, excludeID int64, args ...interface{}) (bool, error) {
	query := "SELECT 1 FROM academic_calendars WHERE " + where
	if excludeID != 0 {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check academic calendar uniqueness: %w", err)
	}
	return true, nil
}

// CountSchedules returns how many lecturer schedules reference the calendar.
func (r *CalendarRepository) CountSchedules(ctx context.Context, id int64) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lecturer_schedules WHERE sy_term_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count calendar schedules: %w", err)
	}
	return total, nil
}

// Create inserts a calendar.
func (r *CalendarRepository) Create(ctx context.Context, calendar *models.AcademicCalendar) error {
	now := time.Now().UTC()
	if calendar.CreatedAt.IsZero() {
		calendar.CreatedAt = now
	}
	calendar.UpdatedAt = now

	const query = `INSERT INTO academic_calendars (term_id, school_year, start_date, end_date, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, calendar.TermID, calendar.SchoolYear, calendar.StartDate, calendar.EndDate, calendar.CreatedAt, calendar.UpdatedAt).Scan(&calendar.ID); err != nil {
		return fmt.Errorf("create academic calendar: %w", err)
	}
	return nil
}

// Update modifies a calendar. The row is locked first; when the dates change
// and schedules reference the calendar a *models.CalendarInUseError is returned
// and nothing is written. Schedule writers read the period with FOR SHARE, so
// either they see the new dates or this update waits for them to commit.
func (r *CalendarRepository) Update(ctx context.Context, calendar *models.AcademicCalendar) error {
	calendar.UpdatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var current struct {
			StartDate time.Time `db:"start_date"`
			EndDate   time.Time `db:"end_date"`
		}
		if err := tx.GetContext(ctx, &current, `SELECT start_date, end_date FROM academic_calendars WHERE id = $1 FOR UPDATE`, calendar.ID); err != nil {
			return err
		}

		if !current.StartDate.Equal(calendar.StartDate) || !current.EndDate.Equal(calendar.EndDate) {
			var total int
			if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM lecturer_schedules WHERE sy_term_id = $1`, calendar.ID); err != nil {
				return fmt.Errorf("count calendar schedules: %w", err)
			}
			if total > 0 {
				return &models.CalendarInUseError{CalendarID: calendar.ID, Schedules: total}
			}
		}

		const query = `UPDATE academic_calendars SET term_id = $1, school_year = $2, start_date = $3, end_date = $4, updated_at = $5 WHERE id = $6`
		if _, err := tx.ExecContext(ctx, query, calendar.TermID, calendar.SchoolYear, calendar.StartDate, calendar.EndDate, calendar.UpdatedAt, calendar.ID); err != nil {
			return fmt.Errorf("update academic calendar: %w", err)
		}
		return nil
	})
}

// Delete removes a calendar.
func (r *CalendarRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM academic_calendars WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete academic calendar: %w", err)
	}
	return nil
}
