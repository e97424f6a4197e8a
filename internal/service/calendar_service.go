package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

type calendarRepository interface {
	List(ctx context.Context, filter models.CalendarFilter) ([]models.AcademicCalendarDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.AcademicCalendarDetail, error)
	ExistsByTermAndYear(ctx context.Context, termID int64, schoolYear string, excludeID int64) (bool, error)
	ExistsByDates(ctx context.Context, start, end time.Time, excludeID int64) (bool, error)
	CountSchedules(ctx context.Context, id int64) (int, error)
	Create(ctx context.Context, calendar *models.AcademicCalendar) error
	Update(ctx context.Context, calendar *models.AcademicCalendar) error
	Delete(ctx context.Context, id int64) error
}

// CalendarRequest is the payload for creating or replacing an academic calendar.
type CalendarRequest struct {
	TermID     int64  `json:"term_id" validate:"required,gt=0"`
	SchoolYear string `json:"school_year" validate:"required,school_year"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (r CalendarRequest) dates() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	return start, end
}

const dateLayout = "2006-01-02"

// CalendarService manages academic calendars. Single-calendar reads go through
// the cache; the conflict checks read periods from their own transaction.
type CalendarService struct {
	repo      calendarRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewCalendarService constructs the calendar service. cache may be nil.
func NewCalendarService(repo calendarRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *CalendarService {
	if validate == nil {
		validate = mustValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns paginated calendars.
func (s *CalendarService) List(ctx context.Context, filter models.CalendarFilter) ([]models.AcademicCalendarDetail, *models.Pagination, error) {
	calendars, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list academic calendars")
	}
	return calendars, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one calendar, served from cache when possible.
func (s *CalendarService) Get(ctx context.Context, id int64) (*models.AcademicCalendarDetail, error) {
	key := calendarKey(id)
	var cached models.AcademicCalendarDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	calendar, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic calendar not found", "failed to load academic calendar")
	}
	_ = s.cache.Set(ctx, key, calendar, s.cacheTTL)
	return calendar, nil
}

// Create adds a calendar after checking its dates and uniqueness.
func (s *CalendarService) Create(ctx context.Context, req CalendarRequest) (*models.AcademicCalendar, error) {
	start, end, err := s.check(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	calendar := &models.AcademicCalendar{
		TermID:     req.TermID,
		SchoolYear: req.SchoolYear,
		StartDate:  start,
		EndDate:    end,
	}
	if err := s.repo.Create(ctx, calendar); err != nil {
		return nil, calendarWriteError(err, "failed to create academic calendar")
	}
	return calendar, nil
}

// Update replaces a calendar and drops its cache entry. Dates of a calendar
// that schedules reference cannot change.
func (s *CalendarService) Update(ctx context.Context, id int64, req CalendarRequest) (*models.AcademicCalendar, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "academic calendar not found", "failed to load academic calendar")
	}
	start, end, err := s.check(ctx, req, id)
	if err != nil {
		return nil, err
	}

	calendar := existing.AcademicCalendar
	calendar.TermID = req.TermID
	calendar.SchoolYear = req.SchoolYear
	calendar.StartDate = start
	calendar.EndDate = end
	if err := s.repo.Update(ctx, &calendar); err != nil {
		var inUse *models.CalendarInUseError
		if errors.As(err, &inUse) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("academic calendar dates cannot change while %d schedules use it", inUse.Schedules)).
				WithFields(map[string]string{
					"start_date": "cannot change while schedules use this calendar",
					"end_date":   "cannot change while schedules use this calendar",
				})
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic calendar not found")
		}
		return nil, calendarWriteError(err, "failed to update academic calendar")
	}
	s.evict(ctx, id)
	return &calendar, nil
}

// Delete removes a calendar that no schedule references.
func (s *CalendarService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return lookupError(err, "academic calendar not found", "failed to load academic calendar")
	}
	count, err := s.repo.CountSchedules(ctx, id)
	if err != nil {
		return internalError(err, "failed to check calendar usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("academic calendar is used by %d schedules", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "failed to delete academic calendar")
	}
	s.evict(ctx, id)
	return nil
}

func (s *CalendarService) check(ctx context.Context, req CalendarRequest, excludeID int64) (time.Time, time.Time, error) {
	if err := s.validator.Struct(req); err != nil {
		return time.Time{}, time.Time{}, payloadError(err, "invalid academic calendar payload")
	}
	start, end := req.dates()
	if !start.Before(end) {
		return start, end, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date").
			WithFields(map[string]string{"end_date": "must be after start_date"})
	}

	exists, err := s.repo.ExistsByTermAndYear(ctx, req.TermID, req.SchoolYear, excludeID)
	if err != nil {
		return start, end, internalError(err, "failed to check academic calendar uniqueness")
	}
	if exists {
		return start, end, appErrors.Clone(appErrors.ErrConflict, "term already has a calendar for this school year").
			WithFields(map[string]string{"school_year": "already used by this term"})
	}

	exists, err = s.repo.ExistsByDates(ctx, start, end, excludeID)
	if err != nil {
		return start, end, internalError(err, "failed to check academic calendar uniqueness")
	}
	if exists {
		return start, end, appErrors.Clone(appErrors.ErrConflict, "another calendar spans the same dates").
			WithFields(map[string]string{"start_date": "already used by another calendar"})
	}
	return start, end, nil
}

func (s *CalendarService) evict(ctx context.Context, id int64) {
	if err := s.cache.Evict(ctx, calendarKey(id)); err != nil {
		s.logger.Warn("failed to evict cached calendar", zap.Int64("calendar_id", id), zap.Error(err))
	}
}

func calendarWriteError(err error, message string) error {
	if _, ok := database.IsForeignKeyViolation(err); ok {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "term not found").
			WithFields(map[string]string{"term_id": "term not found"})
	}
	return writeError(err, message)
}

func calendarKey(id int64) string {
	return "calendar:" + strconv.FormatInt(id, 10)
}

// validSchoolYear accepts "YYYY-YYYY" where the second year follows the first.
func validSchoolYear(value string) bool {
	if len(value) != 9 || value[4] != '-' {
		return false
	}
	first, err := strconv.Atoi(value[:4])
	if err != nil {
		return false
	}
	second, err := strconv.Atoi(value[5:])
	if err != nil {
		return false
	}
	return second == first+1
}
