package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type programSubjectRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.ProgramSubject, int, error)
	FindByID(ctx context.Context, id int64) (*models.ProgramSubject, error)
	CountSchedules(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, subject *models.ProgramSubject) error
	Update(ctx context.Context, subject *models.ProgramSubject) error
	Delete(ctx context.Context, id int64) error
}

// ProgramSubjectRequest describes a subject offering.
type ProgramSubjectRequest struct {
	ProgSubjCode string `json:"prog_subj_code" validate:"required,max=32"`
	ProgCode     string `json:"prog_code" validate:"required,max=16"`
	SubjID       int64  `json:"subj_id" validate:"required,gt=0"`
	YearLevel    int    `json:"year_level" validate:"required,min=1,max=6"`
	TermID       int64  `json:"term_id" validate:"required,gt=0"`
}

// ProgramSubjectService manages subject offerings.
type ProgramSubjectService struct {
	repo      programSubjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramSubjectService constructs a program subject service.
func NewProgramSubjectService(repo programSubjectRepository, validate *validator.Validate, logger *zap.Logger) *ProgramSubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramSubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated offerings.
func (s *ProgramSubjectService) List(ctx context.Context, filter models.CatalogFilter) ([]models.ProgramSubject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list program subjects")
	}
	return subjects, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an offering.
func (s *ProgramSubjectService) Get(ctx context.Context, id int64) (*models.ProgramSubject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "program subject not found", "failed to load program subject")
	}
	return subject, nil
}

// Create adds an offering.
func (s *ProgramSubjectService) Create(ctx context.Context, req ProgramSubjectRequest) (*models.ProgramSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid program subject payload")
	}
	subject := &models.ProgramSubject{}
	applyProgramSubject(subject, req)
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, writeError(err, "failed to create program subject")
	}
	return subject, nil
}

// Update modifies an offering.
func (s *ProgramSubjectService) Update(ctx context.Context, id int64, req ProgramSubjectRequest) (*models.ProgramSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, payloadError(err, "invalid program subject payload")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "program subject not found", "failed to load program subject")
	}
	applyProgramSubject(subject, req)
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, writeError(err, "failed to update program subject")
	}
	return subject, nil
}

// Delete removes an offering that no schedule teaches.
func (s *ProgramSubjectService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "program subject not found", "failed to load program subject")
	}
	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return internalError(err, "failed to check program subject usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("program subject is taught by %d schedules", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete program subject")
	}
	return nil
}

func applyProgramSubject(subject *models.ProgramSubject, req ProgramSubjectRequest) {
	subject.ProgSubjCode = req.ProgSubjCode
	subject.ProgCode = req.ProgCode
	subject.SubjID = req.SubjID
	subject.YearLevel = req.YearLevel
	subject.TermID = req.TermID
}
