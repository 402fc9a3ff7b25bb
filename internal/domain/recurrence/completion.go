package recurrence

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// AdvancePolicy selects the reference point a completion advances from.
type AdvancePolicy string

const (
	// PolicyDueDate advances from the satisfied due date (or the anchor when
	// unscheduled), keeping a fixed cadence regardless of when work happened.
	PolicyDueDate AdvancePolicy = "due_date"
	// PolicyCompletionDate advances from the day the work was done, so late
	// completions push the schedule forward.
	PolicyCompletionDate AdvancePolicy = "completion_date"
)

func ParsePolicy(raw string) (AdvancePolicy, error) {
	switch AdvancePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyDueDate:
		return PolicyDueDate, nil
	case PolicyCompletionDate:
		return PolicyCompletionDate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, raw)
	}
}

// Completion is one immutable ledger entry.
type Completion struct {
	ID               string
	EquipmentID      string
	DueDateSatisfied civil.Date
	IntervalWeeks    int
	CompletedOn      civil.Date
	NextDueDate      civil.Date
	Policy           AdvancePolicy
	CompletedAt      time.Time
	CompletedBy      string
}

// CompletionInput is the caller's snapshot for one completion. Now and Today
// are supplied explicitly so a single call never reads the clock twice.
type CompletionInput struct {
	ID               string
	Now              time.Time
	Today            civil.Date
	CompletedOn      civil.Date
	IntervalOverride int
	CompletedBy      string
}

// CompleteOnSchedule records a completion and advances the due date from the
// due date being satisfied.
func CompleteOnSchedule(eq Equipment, in CompletionInput) (Equipment, Completion, error) {
	return RecordCompletion(eq, PolicyDueDate, in)
}

// CompleteFromActual records a completion and advances the due date from the
// date the work was actually done.
func CompleteFromActual(eq Equipment, in CompletionInput) (Equipment, Completion, error) {
	return RecordCompletion(eq, PolicyCompletionDate, in)
}

// RecordCompletion returns the advanced record together with the ledger entry
// describing the advance. The input record is not modified; persisting both
// results is the caller's single unit of work.
func RecordCompletion(eq Equipment, policy AdvancePolicy, in CompletionInput) (Equipment, Completion, error) {
	const op = "record completion"

	if in.Now.IsZero() {
		return eq, Completion{}, opError(op, eq.ID, fmt.Errorf("%w: completion timestamp is required", ErrInvalidDate))
	}

	interval := eq.IntervalWeeks
	if in.IntervalOverride != 0 {
		interval = in.IntervalOverride
	}
	if err := ValidateInterval(interval); err != nil {
		return eq, Completion{}, opError(op, eq.ID, err)
	}

	satisfied := eq.DueDate
	reference := satisfied
	if reference.IsZero() {
		reference = eq.AnchorDate
	}
	if reference.IsZero() {
		return eq, Completion{}, opError(op, eq.ID, ErrNothingToAdvance)
	}

	completedOn := in.CompletedOn
	if completedOn.IsZero() {
		completedOn = in.Today
	}
	if completedOn.IsZero() || !completedOn.IsValid() {
		return eq, Completion{}, opError(op, eq.ID, fmt.Errorf("%w: completion date %q", ErrInvalidDate, FormatDate(completedOn)))
	}

	switch policy {
	case PolicyDueDate:
	case PolicyCompletionDate:
		reference = completedOn
	default:
		return eq, Completion{}, opError(op, eq.ID, fmt.Errorf("%w: %q", ErrInvalidPolicy, policy))
	}

	next, err := ComputeDueDate(reference, interval)
	if err != nil {
		return eq, Completion{}, opError(op, eq.ID, err)
	}

	updated := eq
	updated.IntervalWeeks = interval
	updated.DueDate = next
	updated.UpdatedAt = in.Now

	completion := Completion{
		ID:               in.ID,
		EquipmentID:      eq.ID,
		DueDateSatisfied: satisfied,
		IntervalWeeks:    interval,
		CompletedOn:      completedOn,
		NextDueDate:      next,
		Policy:           policy,
		CompletedAt:      in.Now,
		CompletedBy:      strings.TrimSpace(in.CompletedBy),
	}
	return updated, completion, nil
}
