package tracker

import (
	"context"

	"cloud.google.com/go/civil"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
)

// DueReportInput selects and orders the records for one report. A zero Today
// uses the service clock; a nil LookaheadWeeks uses tracker.lookahead_weeks.
type DueReportInput struct {
	Filter         recurrence.Filter
	Today          civil.Date
	LookaheadWeeks *int
	Sort           recurrence.SortOptions
}

type DueReport struct {
	Today          string          `json:"today" yaml:"today"`
	WindowEnd      string          `json:"window_end" yaml:"window_end"`
	LookaheadWeeks int             `json:"lookahead_weeks" yaml:"lookahead_weeks"`
	Overdue        []EquipmentView `json:"overdue" yaml:"overdue"`
	Upcoming       []EquipmentView `json:"upcoming" yaml:"upcoming"`
	Remaining      []EquipmentView `json:"remaining" yaml:"remaining"`
}

func (r DueReport) Len() int {
	return len(r.Overdue) + len(r.Upcoming) + len(r.Remaining)
}

// DueReport classifies the filtered records into overdue, upcoming and
// remaining, then sorts each bucket with the per-view sort options.
func (s *Service) DueReport(ctx context.Context, input DueReportInput) (DueReport, error) {
	if err := s.ready(ctx); err != nil {
		return DueReport{}, err
	}

	today := input.Today
	if today.IsZero() {
		today = s.Today()
	}
	lookahead := s.opts.LookaheadWeeks
	if input.LookaheadWeeks != nil {
		lookahead = *input.LookaheadWeeks
	}

	records, err := s.repo.ListEquipment(ctx, input.Filter)
	if err != nil {
		return DueReport{}, err
	}
	buckets, err := recurrence.Classify(records, today, lookahead)
	if err != nil {
		return DueReport{}, errs.Wrap(err, "due report")
	}

	return DueReport{
		Today:          today.String(),
		WindowEnd:      today.AddDays(lookahead * 7).String(),
		LookaheadWeeks: lookahead,
		Overdue:        newEquipmentViews(recurrence.SortEquipment(buckets.Overdue, input.Sort)),
		Upcoming:       newEquipmentViews(recurrence.SortEquipment(buckets.Upcoming, input.Sort)),
		Remaining:      newEquipmentViews(recurrence.SortEquipment(buckets.Remaining, input.Sort)),
	}, nil
}
