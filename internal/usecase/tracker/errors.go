package tracker

import (
	"errors"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/ports"
)

// IsValidation reports errors caused by the caller's input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) || recurrence.IsValidation(err)
}

// IsNotFound reports repository lookup misses.
func IsNotFound(err error) bool {
	return errors.Is(err, ports.ErrEquipmentNotFound) ||
		errors.Is(err, ports.ErrClientNotFound) ||
		errors.Is(err, ports.ErrSiteNotFound) ||
		errors.Is(err, ports.ErrEquipmentTypeNotFound)
}

// IsConflict reports writes refused because of the current stored state.
func IsConflict(err error) bool {
	return errors.Is(err, ports.ErrConcurrentUpdate) ||
		errors.Is(err, ports.ErrDeleteBlocked) ||
		errors.Is(err, ports.ErrDuplicateName)
}
