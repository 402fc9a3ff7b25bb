package recurrence

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// State is the schedule state of an equipment record. Active/inactive is a
// separate flag and not part of this machine.
type State string

const (
	StateUnscheduled State = "unscheduled"
	StateScheduled   State = "scheduled"
)

// Equipment is a recurrence record for one piece of equipment.
// A zero DueDate means the record is unscheduled.
type Equipment struct {
	ID            string
	ClientID      string
	SiteID        string
	TypeID        string
	Name          string
	AnchorDate    civil.Date
	DueDate       civil.Date
	IntervalWeeks int
	LeadWeeks     int
	Active        bool
	Timezone      string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EquipmentSpec carries the fields accepted at registration time.
type EquipmentSpec struct {
	ID            string
	ClientID      string
	SiteID        string
	TypeID        string
	Name          string
	AnchorDate    civil.Date
	DueDate       civil.Date
	IntervalWeeks int
	LeadWeeks     int
	Active        bool
	Timezone      string
	Notes         string
	CreatedAt     time.Time
}

// NewEquipment builds a validated record. Without an explicit due date the
// record starts unscheduled.
func NewEquipment(spec EquipmentSpec) (Equipment, error) {
	eq := Equipment{
		ID:            strings.TrimSpace(spec.ID),
		ClientID:      strings.TrimSpace(spec.ClientID),
		SiteID:        strings.TrimSpace(spec.SiteID),
		TypeID:        strings.TrimSpace(spec.TypeID),
		Name:          strings.TrimSpace(spec.Name),
		AnchorDate:    spec.AnchorDate,
		DueDate:       spec.DueDate,
		IntervalWeeks: spec.IntervalWeeks,
		LeadWeeks:     spec.LeadWeeks,
		Active:        spec.Active,
		Timezone:      strings.TrimSpace(spec.Timezone),
		Notes:         spec.Notes,
		CreatedAt:     spec.CreatedAt,
		UpdatedAt:     spec.CreatedAt,
	}
	if err := eq.Validate(); err != nil {
		return Equipment{}, opError("create equipment", eq.ID, err)
	}
	return eq, nil
}

func (e Equipment) State() State {
	if e.DueDate.IsZero() {
		return StateUnscheduled
	}
	return StateScheduled
}

func (e Equipment) Validate() error {
	if e.ClientID == "" {
		return fmt.Errorf("%w: client id is required", ErrInvalidEquipment)
	}
	if e.SiteID == "" {
		return fmt.Errorf("%w: site id is required", ErrInvalidEquipment)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEquipment)
	}
	if e.AnchorDate.IsZero() {
		return fmt.Errorf("%w: anchor date is required", ErrInvalidEquipment)
	}
	if !e.AnchorDate.IsValid() {
		return fmt.Errorf("%w: anchor date %s", ErrInvalidDate, e.AnchorDate)
	}
	if !e.DueDate.IsZero() && !e.DueDate.IsValid() {
		return fmt.Errorf("%w: due date %s", ErrInvalidDate, e.DueDate)
	}
	if err := ValidateInterval(e.IntervalWeeks); err != nil {
		return err
	}
	if e.LeadWeeks < 0 {
		return fmt.Errorf("%w: lead weeks must not be negative", ErrInvalidEquipment)
	}
	return nil
}

// Reschedule changes the cadence only. The due date is left alone; advancing
// it is the job of a completion or an explicit recalculation.
func (e Equipment) Reschedule(intervalWeeks int) (Equipment, error) {
	if err := ValidateInterval(intervalWeeks); err != nil {
		return e, opError("reschedule", e.ID, err)
	}
	e.IntervalWeeks = intervalWeeks
	return e, nil
}

// RecalculateFromDueDate moves the current due date forward by one interval.
func (e Equipment) RecalculateFromDueDate() (Equipment, error) {
	if e.DueDate.IsZero() {
		return e, opError("recalculate from due date", e.ID, ErrNothingToAdvance)
	}
	next, err := ComputeDueDate(e.DueDate, e.IntervalWeeks)
	if err != nil {
		return e, opError("recalculate from due date", e.ID, err)
	}
	e.DueDate = next
	return e, nil
}

// RecalculateFromAnchor sets the due date to anchor + one interval.
func (e Equipment) RecalculateFromAnchor() (Equipment, error) {
	if e.AnchorDate.IsZero() {
		return e, opError("recalculate from anchor", e.ID, ErrNothingToAdvance)
	}
	next, err := ComputeDueDate(e.AnchorDate, e.IntervalWeeks)
	if err != nil {
		return e, opError("recalculate from anchor", e.ID, err)
	}
	e.DueDate = next
	return e, nil
}

// SetDueDate is the administrative override. It bypasses the calculator; a
// zero date returns the record to the unscheduled state.
func (e Equipment) SetDueDate(due civil.Date) (Equipment, error) {
	if !due.IsZero() && !due.IsValid() {
		return e, opError("set due date", e.ID, fmt.Errorf("%w: %s", ErrInvalidDate, due))
	}
	e.DueDate = due
	return e, nil
}

// LeadDate is the start of the record's own warning window. It is display
// only; classification uses the caller's lookahead.
func (e Equipment) LeadDate() civil.Date {
	if e.DueDate.IsZero() {
		return civil.Date{}
	}
	return e.DueDate.AddDays(-e.LeadWeeks * daysPerWeek)
}
