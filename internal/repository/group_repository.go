package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

// GroupRepository persists student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a group repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups, optionally narrowed to one program.
func (r *GroupRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.Group, int, error) {
	base := "FROM groups WHERE 1=1"
	var conditions []string
	var args []interface{}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.ProgCode != "" {
		conditions = append(conditions, fmt.Sprintf("prog_code = $%d", len(args)+1))
		args = append(args, filter.ProgCode)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, prog_code, created_at, updated_at %s ORDER BY name %s LIMIT %d OFFSET %d", base, order, size, offset)
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	return groups, total, nil
}

// FindByID loads a group.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, `SELECT id, name, prog_code, created_at, updated_at FROM groups WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// CountSchedules returns how many schedules the group attends.
func (r *GroupRepository) CountSchedules(ctx context.Context, id int64) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM lecturer_schedules WHERE class_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count group schedules: %w", err)
	}
	return total, nil
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	now := time.Now().UTC()
	group.CreatedAt, group.UpdatedAt = now, now
	const query = `INSERT INTO groups (name, prog_code, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, group.Name, group.ProgCode, group.CreatedAt, group.UpdatedAt).Scan(&group.ID); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update modifies a group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `UPDATE groups SET name = $1, prog_code = $2, updated_at = $3 WHERE id = $4`, group.Name, group.ProgCode, group.UpdatedAt, group.ID); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes a group.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
