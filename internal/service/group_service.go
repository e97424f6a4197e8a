package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Group, int, error)
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	CountSchedules(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id int64) error
}

// GroupRequest describes a student group.
type GroupRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	ProgCode string `json:"prog_code" validate:"required,max=16"`
}

// GroupService manages student groups.
type GroupService struct {
	repo      groupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a group service.
func NewGroupService(repo groupRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated groups.
func (s *GroupService) List(ctx context.Context, filter models.CatalogFilter) ([]models.Group, *models.Pagination, error) {
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list groups")
	}
	return groups, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a group.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "group not found", "failed to load group")
	}
	return group, nil
}

// Create adds a group.
func (s *GroupService) Create(ctx context.Context, req GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid group payload")
	}
	group := &models.Group{Name: req.Name, ProgCode: req.ProgCode}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, writeError(err, "failed to create group")
	}
	return group, nil
}

// Update modifies a group.
func (s *GroupService) Update(ctx context.Context, id int64, req GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid group payload")
	}
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "group not found", "failed to load group")
	}
	group.Name = req.Name
	group.ProgCode = req.ProgCode
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, writeError(err, "failed to update group")
	}
	return group, nil
}

// Delete removes a group that attends no scheduled lecture.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "group not found", "failed to load group")
	}
	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return internalError(err, "failed to check group usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("group attends %d schedules", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete group")
	}
	return nil
}
