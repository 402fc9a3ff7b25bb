package recurrence

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func mustDate(t *testing.T, raw string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(raw)
	if err != nil {
		t.Fatalf("parse date %q: %v", raw, err)
	}
	return d
}

func TestComputeDueDate(t *testing.T) {
	testCases := []struct {
		name      string
		reference string
		weeks     int
		want      string
	}{
		{name: "four weeks", reference: "2024-01-01", weeks: 4, want: "2024-01-29"},
		{name: "crosses leap day", reference: "2024-02-15", weeks: 2, want: "2024-02-29"},
		{name: "crosses year end", reference: "2024-12-20", weeks: 2, want: "2025-01-03"},
		{name: "spring dst change in europe", reference: "2024-03-25", weeks: 1, want: "2024-04-01"},
		{name: "autumn dst change in us", reference: "2024-10-30", weeks: 1, want: "2024-11-06"},
		{name: "one year", reference: "2023-06-01", weeks: 52, want: "2024-05-30"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := ComputeDueDate(mustDate(t, testCase.reference), testCase.weeks)
			if err != nil {
				t.Fatalf("ComputeDueDate() error = %v", err)
			}
			if got.String() != testCase.want {
				t.Fatalf("ComputeDueDate() = %s, want %s", got, testCase.want)
			}
		})
	}
}

func TestComputeDueDateRejectsInvalidInterval(t *testing.T) {
	for _, weeks := range []int{0, -1, -52} {
		_, err := ComputeDueDate(civil.Date{Year: 2024, Month: time.January, Day: 1}, weeks)
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("ComputeDueDate(weeks=%d) error = %v, want ErrInvalidInterval", weeks, err)
		}
	}
}

func TestComputeDueDateWithoutReferenceIsUnscheduled(t *testing.T) {
	got, err := ComputeDueDate(civil.Date{}, 4)
	if err != nil {
		t.Fatalf("ComputeDueDate() error = %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("ComputeDueDate() = %s, want zero date", got)
	}
}

func TestComputeDueDateRejectsInvalidCalendarDate(t *testing.T) {
	_, err := ComputeDueDate(civil.Date{Year: 2023, Month: time.February, Day: 30}, 1)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("ComputeDueDate() error = %v, want ErrInvalidDate", err)
	}
}

func TestComputeDueDateProperties(t *testing.T) {
	start := civil.Date{Year: 2023, Month: time.January, Day: 1}
	for offset := 0; offset < 800; offset += 13 {
		d := start.AddDays(offset)
		for _, n := range []int{1, 2, 4, 13, 26, 52} {
			first, err := ComputeDueDate(d, n)
			if err != nil {
				t.Fatalf("ComputeDueDate(%s, %d) error = %v", d, n, err)
			}
			second, _ := ComputeDueDate(d, n)
			if first != second {
				t.Fatalf("ComputeDueDate(%s, %d) not deterministic: %s vs %s", d, n, first, second)
			}

			if first.In(time.UTC).Weekday() != d.In(time.UTC).Weekday() {
				t.Fatalf("ComputeDueDate(%s, %d) = %s, weekday changed", d, n, first)
			}
			if got := first.DaysSince(d); got != n*7 {
				t.Fatalf("ComputeDueDate(%s, %d) advanced %d days, want %d", d, n, got, n*7)
			}

			for _, m := range []int{1, 3, 52} {
				chained, _ := ComputeDueDate(first, m)
				direct, _ := ComputeDueDate(d, n+m)
				if chained != direct {
					t.Fatalf("additivity broken for %s n=%d m=%d: %s vs %s", d, n, m, chained, direct)
				}
			}
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if got != (civil.Date{Year: 2024, Month: time.March, Day: 15}) {
		t.Fatalf("ParseDate() = %s", got)
	}

	blank, err := ParseDate("")
	if err != nil || !blank.IsZero() {
		t.Fatalf("ParseDate(\"\") = %v, %v", blank, err)
	}

	if _, err := ParseDate("15/03/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("ParseDate() error = %v, want ErrInvalidDate", err)
	}
	if FormatDate(civil.Date{}) != "" {
		t.Fatalf("FormatDate(zero) = %q", FormatDate(civil.Date{}))
	}
}
