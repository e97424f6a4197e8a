package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/internal/scheduling"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
)

// RoomRepository persists rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms ordered by name.
func (r *RoomRepository) List(ctx context.Context, filter models.CatalogFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, created_at, updated_at %s ORDER BY name %s LIMIT %d OFFSET %d", base, order, size, offset)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindByID loads a room.
func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT id, name, created_at, updated_at FROM rooms WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByName loads a room by its schedule code.
func (r *RoomRepository) FindByName(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT id, name, created_at, updated_at FROM rooms WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByName checks whether another room already uses name.
func (r *RoomRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM rooms WHERE name = $1"
	args := []interface{}{name}
	if excludeID != 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check room uniqueness: %w", err)
	}
	return true, nil
}

// CountSchedules returns how many schedules book the room.
func (r *RoomRepository) CountSchedules(ctx context.Context, id int64) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM lecturer_schedules s JOIN rooms r ON r.name = s.room_code WHERE r.id = $1`
	if err := r.db.GetContext(ctx, &total, query, id); err != nil {
		return 0, fmt.Errorf("count room schedules: %w", err)
	}
	return total, nil
}

// Create inserts a room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	if err := r.db.QueryRowxContext(ctx, `INSERT INTO rooms (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`, room.Name, room.CreatedAt, room.UpdatedAt).Scan(&room.ID); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Rename changes a room's name from previous. Schedules follow through the
// foreign key's ON UPDATE CASCADE, so the advisory locks schedule writers take
// on both codes are held for the rename. sql.ErrNoRows means the room no longer
// carries previous.
func (r *RoomRepository) Rename(ctx context.Context, room *models.Room, previous string) error {
	room.UpdatedAt = time.Now().UTC()
	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		keys := []string{scheduling.DimensionRoom.LockKey(previous), scheduling.DimensionRoom.LockKey(room.Name)}
		if err := database.LockKeys(ctx, tx, keys...); err != nil {
			return fmt.Errorf("lock room bookings: %w", err)
		}

		res, err := tx.ExecContext(ctx, `UPDATE rooms SET name = $1, updated_at = $2 WHERE id = $3 AND name = $4`, room.Name, room.UpdatedAt, room.ID, previous)
		if err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update room: %w", err)
		}
		if affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// Delete removes a room.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
