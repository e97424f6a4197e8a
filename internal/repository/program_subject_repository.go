package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

const programSubjectColumns = "id, prog_subj_code, prog_code, subj_id, year_level, term_id, created_at, updated_at"

// ProgramSubjectRepository persists program subject offerings.
type ProgramSubjectRepository struct {
	db *sqlx.DB
}

// NewProgramSubjectRepository constructs a program subject repository.
func NewProgramSubjectRepository(db *sqlx.DB) *ProgramSubjectRepository {
	return &ProgramSubjectRepository{db: db}
}

// List returns offerings ordered by program, year level and code.
func (r *ProgramSubjectRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.ProgramSubject, int, error) {
	base := "FROM program_subjects WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("prog_subj_code ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ProgCode != "" {
		conditions = append(conditions, fmt.Sprintf("prog_code = $%d", len(args)+1))
		args = append(args, filter.ProgCode)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY prog_code, year_level, prog_subj_code LIMIT %d OFFSET %d", programSubjectColumns, base, size, offset)
	var subjects []models.ProgramSubject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list program subjects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count program subjects: %w", err)
	}
	return subjects, total, nil
}

// FindByID loads an offering.
func (r *ProgramSubjectRepository) FindByID(ctx context.Context, id int64) (*models.ProgramSubject, error) {
	var subject models.ProgramSubject
	query := fmt.Sprintf("SELECT %s FROM program_subjects WHERE id = $1", programSubjectColumns)
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// CountSchedules returns how many schedules teach the offering.
func (r *ProgramSubjectRepository) CountSchedules(ctx context.Context, id int64) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lecturer_schedules WHERE prog_subj_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count program subject schedules: %w", err)
	}
	return total, nil
}

// Create inserts an offering.
func (r *ProgramSubjectRepository) Create(ctx context.Context, subject *models.ProgramSubject) error {
	now := time.Now().UTC()
	subject.CreatedAt, subject.UpdatedAt = now, now
	const query = `INSERT INTO program_subjects (prog_subj_code, prog_code, subj_id, year_level, term_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, subject.ProgSubjCode, subject.ProgCode, subject.SubjID, subject.YearLevel, subject.TermID, subject.CreatedAt, subject.UpdatedAt).Scan(&subject.ID); err != nil {
		return fmt.Errorf("create program subject: %w", err)
	}
	return nil
}

// Update modifies an offering.
func (r *ProgramSubjectRepository) Update(ctx context.Context, subject *models.ProgramSubject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE program_subjects SET prog_subj_code = $1, prog_code = $2, subj_id = $3, year_level = $4, term_id = $5, updated_at = $6 WHERE id = $7`
	if _, err := r.db.ExecContext(ctx, query, subject.ProgSubjCode, subject.ProgCode, subject.SubjID, subject.YearLevel, subject.TermID, subject.UpdatedAt, subject.ID); err != nil {
		return fmt.Errorf("update program subject: %w", err)
	}
	return nil
}

// Delete removes an offering.
func (r *ProgramSubjectRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM program_subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete program subject: %w", err)
	}
	return nil
}
