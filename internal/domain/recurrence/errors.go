package recurrence

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval  = errors.New("recurrence: interval weeks must be a positive integer")
	ErrInvalidDate      = errors.New("recurrence: invalid calendar date")
	ErrNothingToAdvance = errors.New("recurrence: record has neither due date nor anchor date")
	ErrInvalidLookahead = errors.New("recurrence: lookahead weeks must not be negative")
	ErrInvalidPolicy    = errors.New("recurrence: unknown advance policy")
	ErrInvalidEquipment = errors.New("recurrence: invalid equipment record")
	ErrInvalidSort      = errors.New("recurrence: unknown sort key")
)

// Error reports which operation failed on which record.
type Error struct {
	Op       string
	RecordID string
	Err      error
}

func (e *Error) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, recordID string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, RecordID: recordID, Err: err}
}

// IsValidation reports whether err is caused by bad caller input rather than
// by storage or transport.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInterval) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNothingToAdvance) ||
		errors.Is(err, ErrInvalidLookahead) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrInvalidEquipment) ||
		errors.Is(err, ErrInvalidSort)
}
