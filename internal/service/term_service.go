package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type termRepository interface {
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error)
	FindByID(ctx context.Context, id int64) (*models.Term, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	CountCalendars(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) error
	Delete(ctx context.Context, id int64) error
}

// TermRequest describes the payload for creating or renaming a term.
type TermRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// TermService orchestrates term workflows.
type TermService struct {
	repo      termRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermService creates a new term service instance.
func NewTermService(repo termRepository, validate *validator.Validate, logger *zap.Logger) *TermService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated terms.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, *models.Pagination, error) {
	terms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list terms")
	}
	return terms, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a term by ID.
func (s *TermService) Get(ctx context.Context, id int64) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "term not found", "failed to load term")
	}
	return term, nil
}

// Create adds a new term with a unique name.
func (s *TermService) Create(ctx context.Context, req TermRequest) (*models.Term, error) {
	name, err := s.checkName(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	term := &models.Term{Name: name}
	if err := s.repo.Create(ctx, term); err != nil {
		return nil, writeError(err, "failed to create term")
	}
	return term, nil
}

// Update renames a term.
func (s *TermService) Update(ctx context.Context, id int64, req TermRequest) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "term not found", "failed to load term")
	}
	name, err := s.checkName(ctx, req, id)
	if err != nil {
		return nil, err
	}
	term.Name = name
	if err := s.repo.Update(ctx, term); err != nil {
		return nil, writeError(err, "failed to update term")
	}
	return term, nil
}

// Delete removes a term no calendar instantiates.
func (s *TermService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "term not found", "failed to load term")
	}
	count, err := s.repo.CountCalendars(ctx, id)
	if err != nil {
		return internalError(err, "failed to check term usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("term is used by %d academic calendars", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete term")
	}
	s.logger.Info("term deleted", zap.Int64("term_id", id))
	return nil
}

func (s *TermService) checkName(ctx context.Context, req TermRequest, excludeID int64) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", payloadError(err, "invalid term payload")
	}
	exists, err := s.repo.ExistsByName(ctx, req.Name, excludeID)
	if err != nil {
		return "", internalError(err, "failed to check term uniqueness")
	}
	if exists {
		return "", appErrors.Clone(appErrors.ErrConflict, "term name already exists").
			WithFields(map[string]string{"name": "already exists"})
	}
	return req.Name, nil
}
