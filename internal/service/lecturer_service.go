package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type lecturerRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Lecturer, int, error)
	FindByID(ctx context.Context, id int64) (*models.Lecturer, error)
	CountSchedules(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
	Update(ctx context.Context, lecturer *models.Lecturer) error
	Delete(ctx context.Context, id int64) error
}

// LecturerRequest describes a lecturer.
type LecturerRequest struct {
	Title     string `json:"title" validate:"max=32"`
	FirstName string `json:"fname" validate:"required,max=64"`
	LastName  string `json:"lname" validate:"required,max=64"`
}

// LecturerService manages lecturers.
type LecturerService struct {
	repo      lecturerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs a lecturer service.
func NewLecturerService(repo lecturerRepository, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated lecturers.
func (s *LecturerService) List(ctx context.Context, filter models.CatalogFilter) ([]models.Lecturer, *models.Pagination, error) {
	lecturers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list lecturers")
	}
	return lecturers, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a lecturer.
func (s *LecturerService) Get(ctx context.Context, id int64) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "lecturer not found", "failed to load lecturer")
	}
	return lecturer, nil
}

// Create adds a lecturer.
func (s *LecturerService) Create(ctx context.Context, req LecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid lecturer payload")
	}
	lecturer := &models.Lecturer{Title: req.Title, FirstName: req.FirstName, LastName: req.LastName}
	if err := s.repo.Create(ctx, lecturer); err != nil {
		return nil, writeError(err, "failed to create lecturer")
	}
	return lecturer, nil
}

// Update modifies a lecturer.
func (s *LecturerService) Update(ctx context.Context, id int64, req LecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid lecturer payload")
	}
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "lecturer not found", "failed to load lecturer")
	}
	lecturer.Title = req.Title
	lecturer.FirstName = req.FirstName
	lecturer.LastName = req.LastName
	if err := s.repo.Update(ctx, lecturer); err != nil {
		return nil, writeError(err, "failed to update lecturer")
	}
	return lecturer, nil
}

// Delete removes a lecturer with no scheduled teaching.
func (s *LecturerService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "lecturer not found", "failed to load lecturer")
	}
	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return internalError(err, "failed to check lecturer usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("lecturer is assigned to %d schedules", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete lecturer")
	}
	return nil
}
