package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

// LecturerRepository persists lecturers.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a lecturer repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// List returns lecturers ordered by last name.
func (r *LecturerRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.Lecturer, int, error) {
	base := "FROM lecturers WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (fname ILIKE $%d OR lname ILIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"lname": true, "fname": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "lname"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, title, fname, lname, created_at, updated_at %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lecturers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count lecturers: %w", err)
	}
	return lecturers, total, nil
}

// FindByID loads a lecturer.
func (r *LecturerRepository) FindByID(ctx context.Context, id int64) (*models.Lecturer, error) {
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, `SELECT id, title, fname, lname, created_at, updated_at FROM lecturers WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// CountSchedules returns how many schedules the lecturer teaches.
func (r *LecturerRepository) CountSchedules(ctx context.Context, id int64) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lecturer_schedules WHERE lecturer_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count lecturer schedules: %w", err)
	}
	return total, nil
}

// Create inserts a lecturer.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	now := time.Now().UTC()
	lecturer.CreatedAt, lecturer.UpdatedAt = now, now
	const query = `INSERT INTO lecturers (title, fname, lname, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, lecturer.Title, lecturer.FirstName, lecturer.LastName, lecturer.CreatedAt, lecturer.UpdatedAt).Scan(&lecturer.ID); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// Update modifies a lecturer.
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturers SET title = $1, fname = $2, lname = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, lecturer.Title, lecturer.FirstName, lecturer.LastName, lecturer.UpdatedAt, lecturer.ID); err != nil {
		return fmt.Errorf("update lecturer: %w", err)
	}
	return nil
}

// Delete removes a lecturer.
func (r *LecturerRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lecturers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lecturer: %w", err)
	}
	return nil
}
