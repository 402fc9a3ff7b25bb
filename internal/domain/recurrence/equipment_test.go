package recurrence

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
)

func testSpec(t *testing.T) EquipmentSpec {
	t.Helper()
	return EquipmentSpec{
		ID:            "eq-1",
		ClientID:      "client-1",
		SiteID:        "site-1",
		Name:          "Boiler 3",
		AnchorDate:    mustDate(t, "2024-01-01"),
		IntervalWeeks: 4,
		Active:        true,
	}
}

func TestNewEquipmentStartsUnscheduled(t *testing.T) {
	eq, err := NewEquipment(testSpec(t))
	if err != nil {
		t.Fatalf("NewEquipment() error = %v", err)
	}
	if eq.State() != StateUnscheduled {
		t.Fatalf("State() = %q, want %q", eq.State(), StateUnscheduled)
	}

	spec := testSpec(t)
	spec.DueDate = mustDate(t, "2024-01-01")
	eq, err = NewEquipment(spec)
	if err != nil {
		t.Fatalf("NewEquipment() error = %v", err)
	}
	if eq.State() != StateScheduled {
		t.Fatalf("State() = %q, want %q", eq.State(), StateScheduled)
	}
}

func TestNewEquipmentValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*EquipmentSpec)
		want   error
	}{
		{name: "missing client", mutate: func(s *EquipmentSpec) { s.ClientID = " " }, want: ErrInvalidEquipment},
		{name: "missing site", mutate: func(s *EquipmentSpec) { s.SiteID = "" }, want: ErrInvalidEquipment},
		{name: "missing name", mutate: func(s *EquipmentSpec) { s.Name = "" }, want: ErrInvalidEquipment},
		{name: "missing anchor", mutate: func(s *EquipmentSpec) { s.AnchorDate = civil.Date{} }, want: ErrInvalidEquipment},
		{name: "zero interval", mutate: func(s *EquipmentSpec) { s.IntervalWeeks = 0 }, want: ErrInvalidInterval},
		{name: "negative lead", mutate: func(s *EquipmentSpec) { s.LeadWeeks = -1 }, want: ErrInvalidEquipment},
		{name: "bad due date", mutate: func(s *EquipmentSpec) { s.DueDate = civil.Date{Year: 2024, Month: 2, Day: 31} }, want: ErrInvalidDate},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			spec := testSpec(t)
			testCase.mutate(&spec)
			_, err := NewEquipment(spec)
			if !errors.Is(err, testCase.want) {
				t.Fatalf("NewEquipment() error = %v, want %v", err, testCase.want)
			}
			var opErr *Error
			if !errors.As(err, &opErr) || opErr.Op != "create equipment" {
				t.Fatalf("NewEquipment() error = %#v, want *Error with op", err)
			}
		})
	}
}

func TestRescheduleKeepsDueDate(t *testing.T) {
	spec := testSpec(t)
	spec.DueDate = mustDate(t, "2024-02-01")
	eq, _ := NewEquipment(spec)

	got, err := eq.Reschedule(8)
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if got.IntervalWeeks != 8 {
		t.Fatalf("IntervalWeeks = %d, want 8", got.IntervalWeeks)
	}
	if got.DueDate != eq.DueDate {
		t.Fatalf("DueDate = %s, want unchanged %s", got.DueDate, eq.DueDate)
	}

	if _, err := eq.Reschedule(0); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("Reschedule(0) error = %v, want ErrInvalidInterval", err)
	}
}

func TestRecalculatePolicies(t *testing.T) {
	spec := testSpec(t)
	spec.DueDate = mustDate(t, "2024-03-04")
	eq, _ := NewEquipment(spec)

	fromDue, err := eq.RecalculateFromDueDate()
	if err != nil {
		t.Fatalf("RecalculateFromDueDate() error = %v", err)
	}
	if fromDue.DueDate.String() != "2024-04-01" {
		t.Fatalf("RecalculateFromDueDate() due = %s, want 2024-04-01", fromDue.DueDate)
	}

	fromAnchor, err := eq.RecalculateFromAnchor()
	if err != nil {
		t.Fatalf("RecalculateFromAnchor() error = %v", err)
	}
	if fromAnchor.DueDate.String() != "2024-01-29" {
		t.Fatalf("RecalculateFromAnchor() due = %s, want 2024-01-29", fromAnchor.DueDate)
	}

	unscheduled, _ := NewEquipment(testSpec(t))
	if _, err := unscheduled.RecalculateFromDueDate(); !errors.Is(err, ErrNothingToAdvance) {
		t.Fatalf("RecalculateFromDueDate() on unscheduled error = %v, want ErrNothingToAdvance", err)
	}
}

func TestSetDueDateOverride(t *testing.T) {
	eq, _ := NewEquipment(testSpec(t))

	got, err := eq.SetDueDate(mustDate(t, "2024-07-09"))
	if err != nil {
		t.Fatalf("SetDueDate() error = %v", err)
	}
	if got.DueDate.String() != "2024-07-09" || got.State() != StateScheduled {
		t.Fatalf("SetDueDate() = %s state=%s", got.DueDate, got.State())
	}

	cleared, err := got.SetDueDate(civil.Date{})
	if err != nil {
		t.Fatalf("SetDueDate(zero) error = %v", err)
	}
	if cleared.State() != StateUnscheduled {
		t.Fatalf("SetDueDate(zero) state = %s", cleared.State())
	}
}

func TestLeadDate(t *testing.T) {
	spec := testSpec(t)
	spec.DueDate = mustDate(t, "2024-03-15")
	spec.LeadWeeks = 2
	eq, _ := NewEquipment(spec)

	if got := eq.LeadDate().String(); got != "2024-03-01" {
		t.Fatalf("LeadDate() = %s, want 2024-03-01", got)
	}

	unscheduled, _ := NewEquipment(testSpec(t))
	if !unscheduled.LeadDate().IsZero() {
		t.Fatalf("LeadDate() on unscheduled = %s", unscheduled.LeadDate())
	}
}
