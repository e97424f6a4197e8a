package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-admin-api/internal/models"
)

// RegisterValidations adds the custom tags request payloads rely on:
// weekday for schedule days and school_year for calendars.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := models.ParseWeekday(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("register weekday validation: %w", err)
	}
	if err := v.RegisterValidation("school_year", func(fl validator.FieldLevel) bool {
		return validSchoolYear(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register school_year validation: %w", err)
	}
	return nil
}

// mustValidator backs services constructed without a validator.
func mustValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}
