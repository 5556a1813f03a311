// Package services holds the operations that touch more than one row and
// must commit or roll back as a unit.
package services

import (
	"errors"

	"mealpedeal-api/apperrors"

	"gorm.io/gorm"
)

// lookupErr maps a First/Take failure onto the error taxonomy
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(what)
	}
	return apperrors.Internal("Failed to load "+what, err)
}

func writeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Internal("Failed to update "+what, err)
}
