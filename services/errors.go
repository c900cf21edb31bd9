package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrLockedPlan           = errors.New("plan is locked")
	ErrInvalidState         = errors.New("invalid state")
	ErrSchedulerUnavailable = errors.New("scheduler unavailable")
	ErrCascadeFailure       = errors.New("cascade cleanup failed")
)

// notFoundOr maps gorm's record-not-found onto the service taxonomy and
// passes everything else through.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
