package recurrence

import (
	"fmt"

	"cloud.google.com/go/civil"
)

type Bucket string

const (
	BucketOverdue   Bucket = "overdue"
	BucketUpcoming  Bucket = "upcoming"
	BucketRemaining Bucket = "remaining"
)

// Buckets partitions a record set. Each input record lands in exactly one
// slice, in input order.
type Buckets struct {
	Overdue   []Equipment
	Upcoming  []Equipment
	Remaining []Equipment
}

func (b Buckets) Len() int {
	return len(b.Overdue) + len(b.Upcoming) + len(b.Remaining)
}

// ClassifyOne places a single record relative to today and the window end.
func ClassifyOne(eq Equipment, today civil.Date, windowEnd civil.Date) Bucket {
	if eq.DueDate.IsZero() {
		return BucketRemaining
	}
	if eq.DueDate.Before(today) {
		return BucketOverdue
	}
	if !eq.DueDate.After(windowEnd) {
		return BucketUpcoming
	}
	return BucketRemaining
}

// Classify splits records into overdue, upcoming (today through
// today+lookaheadWeeks*7, both inclusive) and remaining. It never consults the
// clock; today is the caller's snapshot.
func Classify(records []Equipment, today civil.Date, lookaheadWeeks int) (Buckets, error) {
	if today.IsZero() || !today.IsValid() {
		return Buckets{}, opError("classify", "", fmt.Errorf("%w: today %q", ErrInvalidDate, FormatDate(today)))
	}
	if lookaheadWeeks < 0 {
		return Buckets{}, opError("classify", "", fmt.Errorf("%w: got %d", ErrInvalidLookahead, lookaheadWeeks))
	}

	windowEnd := today.AddDays(lookaheadWeeks * daysPerWeek)
	out := Buckets{
		Overdue:   make([]Equipment, 0),
		Upcoming:  make([]Equipment, 0),
		Remaining: make([]Equipment, 0),
	}
	for _, eq := range records {
		switch ClassifyOne(eq, today, windowEnd) {
		case BucketOverdue:
			out.Overdue = append(out.Overdue, eq)
		case BucketUpcoming:
			out.Upcoming = append(out.Upcoming, eq)
		default:
			out.Remaining = append(out.Remaining, eq)
		}
	}
	return out, nil
}
