package service

import (
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-admin-api/internal/models"
	"github.com/noah-isme/timetable-admin-api/pkg/database"
	appErrors "github.com/noah-isme/timetable-admin-api/pkg/errors"
)

func internalError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// payloadError wraps a validator failure, keying each failing field by its JSON name.
func payloadError(err error, message string) *appErrors.Error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErr
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = "failed on " + fe.Tag()
	}
	return appErr.WithFields(fields)
}

// lookupError maps a repository read failure.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return internalError(err, failed)
}

// writeError maps a repository write failure using the PostgreSQL error class.
func writeError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if _, ok := database.IsUniqueViolation(err); ok {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message+": record already exists")
	}
	if _, ok := database.IsForeignKeyViolation(err); ok {
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, message+": referenced record is missing or still in use")
	}
	if database.IsCheckViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message+": value rejected by database constraint")
	}
	if database.IsLockTimeout(err) {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message+": timed out waiting for a concurrent change")
	}
	return internalError(err, message)
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
