package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id int64) (*models.Room, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	CountSchedules(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, room *models.Room) error
	Rename(ctx context.Context, room *models.Room, previous string) error
	Delete(ctx context.Context, id int64) error
}

// RoomRequest names a room. The name is the code schedules book it by.
type RoomRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// RoomService manages rooms.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a room service.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated rooms.
func (s *RoomService) List(ctx context.Context, filter models.CatalogFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list rooms")
	}
	return rooms, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a room.
func (s *RoomService) Get(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "room not found", "failed to load room")
	}
	return room, nil
}

// Create adds a room with a unique name.
func (s *RoomService) Create(ctx context.Context, req RoomRequest) (*models.Room, error) {
	name, err := s.checkName(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	room := &models.Room{Name: name}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, writeError(err, "failed to create room")
	}
	return room, nil
}

// Update renames a room; its bookings follow the new name while the old and new
// room codes are locked against schedule writers.
func (s *RoomService) Update(ctx context.Context, id int64, req RoomRequest) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "room not found", "failed to load room")
	}
	name, err := s.checkName(ctx, req, id)
	if err != nil {
		return nil, err
	}
	previous := room.Name
	room.Name = name
	if err := s.repo.Rename(ctx, room, previous); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room was renamed concurrently").
				WithFields(map[string]string{"name": "changed concurrently, reload and retry"})
		}
		return nil, writeError(err, "failed to update room")
	}
	if previous != name {
		s.logger.Info("room renamed", zap.Int64("room_id", id), zap.String("from", previous), zap.String("to", name))
	}
	return room, nil
}

// Delete removes a room that has no bookings.
func (s *RoomService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "room not found", "failed to load room")
	}
	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return internalError(err, "failed to check room usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("room is booked by %d schedules", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete room")
	}
	return nil
}

func (s *RoomService) checkName(ctx context.Context, req RoomRequest, excludeID int64) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", payloadError(err, "invalid room payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return "", internalError(err, "failed to check room uniqueness")
	}
	if exists {
		return "", appErrors.Clone(appErrors.ErrConflict, "room name already exists").
			WithFields(map[string]string{"name": "already exists"})
	}
	return req.Name, nil
}
