package recurrence

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

var testNow = time.Date(2024, time.January, 3, 15, 4, 5, 0, time.UTC)

func scheduledEquipment(t *testing.T, due string, weeks int) Equipment {
	t.Helper()
	spec := testSpec(t)
	spec.DueDate = mustDate(t, due)
	spec.IntervalWeeks = weeks
	eq, err := NewEquipment(spec)
	if err != nil {
		t.Fatalf("NewEquipment() error = %v", err)
	}
	return eq
}

func TestCompleteOnScheduleOnTime(t *testing.T) {
	eq := scheduledEquipment(t, "2024-01-01", 4)

	updated, completion, err := CompleteOnSchedule(eq, CompletionInput{
		ID:          "c-1",
		Now:         testNow,
		Today:       mustDate(t, "2024-01-03"),
		CompletedBy: " tech-7 ",
	})
	if err != nil {
		t.Fatalf("CompleteOnSchedule() error = %v", err)
	}
	if updated.DueDate.String() != "2024-01-29" {
		t.Fatalf("due date = %s, want 2024-01-29", updated.DueDate)
	}
	if completion.DueDateSatisfied.String() != "2024-01-01" {
		t.Fatalf("due date satisfied = %s, want 2024-01-01", completion.DueDateSatisfied)
	}
	if completion.NextDueDate != updated.DueDate {
		t.Fatalf("next due date = %s, want %s", completion.NextDueDate, updated.DueDate)
	}
	if completion.IntervalWeeks != 4 || completion.Policy != PolicyDueDate {
		t.Fatalf("completion = %+v", completion)
	}
	if completion.CompletedOn.String() != "2024-01-03" {
		t.Fatalf("completed on = %s, want today", completion.CompletedOn)
	}
	if completion.CompletedBy != "tech-7" || completion.EquipmentID != eq.ID || completion.ID != "c-1" {
		t.Fatalf("completion identity = %+v", completion)
	}
	if !completion.CompletedAt.Equal(testNow) || !updated.UpdatedAt.Equal(testNow) {
		t.Fatalf("timestamps = %v / %v", completion.CompletedAt, updated.UpdatedAt)
	}
	if eq.DueDate.String() != "2024-01-01" {
		t.Fatalf("input record mutated: due = %s", eq.DueDate)
	}
}

func TestCompletePoliciesDivergeWhenLate(t *testing.T) {
	eq := scheduledEquipment(t, "2024-01-01", 4)
	in := CompletionInput{Now: testNow, Today: mustDate(t, "2024-01-10")}

	onSchedule, _, err := CompleteOnSchedule(eq, in)
	if err != nil {
		t.Fatalf("CompleteOnSchedule() error = %v", err)
	}
	fromActual, completion, err := CompleteFromActual(eq, in)
	if err != nil {
		t.Fatalf("CompleteFromActual() error = %v", err)
	}

	if onSchedule.DueDate.String() != "2024-01-29" {
		t.Fatalf("on schedule due = %s, want 2024-01-29", onSchedule.DueDate)
	}
	if fromActual.DueDate.String() != "2024-02-07" {
		t.Fatalf("from actual due = %s, want 2024-02-07", fromActual.DueDate)
	}
	if completion.Policy != PolicyCompletionDate || completion.DueDateSatisfied.String() != "2024-01-01" {
		t.Fatalf("completion = %+v", completion)
	}
}

func TestCompleteFromActualUsesExplicitCompletionDate(t *testing.T) {
	eq := scheduledEquipment(t, "2024-01-01", 2)

	updated, completion, err := CompleteFromActual(eq, CompletionInput{
		Now:         testNow,
		Today:       mustDate(t, "2024-01-20"),
		CompletedOn: mustDate(t, "2023-12-28"),
	})
	if err != nil {
		t.Fatalf("CompleteFromActual() error = %v", err)
	}
	if updated.DueDate.String() != "2024-01-11" {
		t.Fatalf("due = %s, want 2024-01-11", updated.DueDate)
	}
	if completion.CompletedOn.String() != "2023-12-28" {
		t.Fatalf("completed on = %s", completion.CompletedOn)
	}
}

func TestCompleteUnscheduledAdvancesFromAnchor(t *testing.T) {
	eq, _ := NewEquipment(testSpec(t))

	updated, completion, err := CompleteOnSchedule(eq, CompletionInput{Now: testNow, Today: mustDate(t, "2024-01-05")})
	if err != nil {
		t.Fatalf("CompleteOnSchedule() error = %v", err)
	}
	if updated.State() != StateScheduled || updated.DueDate.String() != "2024-01-29" {
		t.Fatalf("updated = %s state=%s", updated.DueDate, updated.State())
	}
	if !completion.DueDateSatisfied.IsZero() {
		t.Fatalf("due date satisfied = %s, want none", completion.DueDateSatisfied)
	}
}

func TestCompleteWithIntervalOverride(t *testing.T) {
	eq := scheduledEquipment(t, "2024-01-01", 4)

	updated, completion, err := CompleteOnSchedule(eq, CompletionInput{
		Now:              testNow,
		Today:            mustDate(t, "2024-01-01"),
		IntervalOverride: 13,
	})
	if err != nil {
		t.Fatalf("CompleteOnSchedule() error = %v", err)
	}
	if updated.IntervalWeeks != 13 || completion.IntervalWeeks != 13 {
		t.Fatalf("interval = %d / %d, want 13", updated.IntervalWeeks, completion.IntervalWeeks)
	}
	if updated.DueDate.String() != "2024-04-01" {
		t.Fatalf("due = %s, want 2024-04-01", updated.DueDate)
	}
}

func TestCompleteRejections(t *testing.T) {
	today := civil.Date{Year: 2024, Month: time.January, Day: 2}

	t.Run("invalid override", func(t *testing.T) {
		eq := scheduledEquipment(t, "2024-01-01", 4)
		_, _, err := CompleteOnSchedule(eq, CompletionInput{Now: testNow, Today: today, IntervalOverride: -2})
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("error = %v, want ErrInvalidInterval", err)
		}
	})

	t.Run("invalid stored interval", func(t *testing.T) {
		eq := scheduledEquipment(t, "2024-01-01", 4)
		eq.IntervalWeeks = 0
		_, _, err := CompleteOnSchedule(eq, CompletionInput{Now: testNow, Today: today})
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("error = %v, want ErrInvalidInterval", err)
		}
	})

	t.Run("nothing to advance from", func(t *testing.T) {
		eq := Equipment{ID: "eq-9", IntervalWeeks: 4}
		_, _, err := CompleteFromActual(eq, CompletionInput{Now: testNow, Today: today})
		if !errors.Is(err, ErrNothingToAdvance) {
			t.Fatalf("error = %v, want ErrNothingToAdvance", err)
		}
		var opErr *Error
		if !errors.As(err, &opErr) || opErr.RecordID != "eq-9" || opErr.Op != "record completion" {
			t.Fatalf("error = %#v, want record context", err)
		}
	})

	t.Run("unknown policy", func(t *testing.T) {
		eq := scheduledEquipment(t, "2024-01-01", 4)
		_, _, err := RecordCompletion(eq, AdvancePolicy("weekly"), CompletionInput{Now: testNow, Today: today})
		if !errors.Is(err, ErrInvalidPolicy) {
			t.Fatalf("error = %v, want ErrInvalidPolicy", err)
		}
	})

	t.Run("missing timestamp", func(t *testing.T) {
		eq := scheduledEquipment(t, "2024-01-01", 4)
		_, _, err := CompleteOnSchedule(eq, CompletionInput{Today: today})
		if err == nil {
			t.Fatalf("expected error without Now")
		}
	})
}

func TestParsePolicy(t *testing.T) {
	got, err := ParsePolicy(" Completion_Date ")
	if err != nil || got != PolicyCompletionDate {
		t.Fatalf("ParsePolicy() = %q, %v", got, err)
	}
	if _, err := ParsePolicy("anchor"); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("ParsePolicy() error = %v, want ErrInvalidPolicy", err)
	}
}
