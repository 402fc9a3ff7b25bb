package tracker

import (
	"context"
	"log/slog"

	"cloud.google.com/go/civil"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/ports"
)

// CompleteInput records one inspection. An empty Policy uses the configured
// default. CompletedOn defaults to today; IntervalOverride 0 keeps the
// record's interval.
type CompleteInput struct {
	EquipmentID      string
	Policy           string
	CompletedOn      civil.Date
	IntervalOverride int
	CompletedBy      string
}

type CompleteResult struct {
	Equipment  EquipmentView  `json:"equipment" yaml:"equipment"`
	Completion CompletionView `json:"completion" yaml:"completion"`
}

// CompleteEquipment appends a completion and advances the due date in one
// transaction. The advance is a compare-and-set; a concurrent writer makes
// this call fail with ports.ErrConcurrentUpdate and nothing is written.
func (s *Service) CompleteEquipment(ctx context.Context, input CompleteInput) (CompleteResult, error) {
	if err := s.ready(ctx); err != nil {
		return CompleteResult{}, err
	}
	id, err := requireID("equipment id", input.EquipmentID)
	if err != nil {
		return CompleteResult{}, err
	}

	policy := s.opts.DefaultPolicy
	if input.Policy != "" {
		policy, err = recurrence.ParsePolicy(input.Policy)
		if err != nil {
			return CompleteResult{}, errs.Op("complete equipment", id, err)
		}
	}

	now := s.now()
	today := civil.DateOf(now.In(s.opts.Location))

	var (
		updated    recurrence.Equipment
		completion recurrence.Completion
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetEquipment(txCtx, id)
		if err != nil {
			return err
		}

		updated, completion, err = recurrence.RecordCompletion(current, policy, recurrence.CompletionInput{
			ID:               s.newID(),
			Now:              now.UTC(),
			Today:            today,
			CompletedOn:      input.CompletedOn,
			IntervalOverride: input.IntervalOverride,
			CompletedBy:      input.CompletedBy,
		})
		if err != nil {
			return err
		}

		if err := s.repo.UpdateSchedule(txCtx, ports.ScheduleUpdate{
			EquipmentID:           id,
			ExpectedDueDate:       current.DueDate,
			ExpectedIntervalWeeks: current.IntervalWeeks,
			DueDate:               updated.DueDate,
			IntervalWeeks:         updated.IntervalWeeks,
			UpdatedAt:             updated.UpdatedAt,
		}); err != nil {
			return err
		}
		return s.repo.AppendCompletion(txCtx, completion)
	}); err != nil {
		return CompleteResult{}, errs.Op("complete equipment", id, err)
	}

	s.cacheDueBestEffort(ctx, updated)
	s.publishBestEffort(ctx, updated, completion)

	logging.Info(ctx, "completion recorded",
		slog.String("equipment_id", id),
		slog.String("completion_id", completion.ID),
		slog.String("policy", string(completion.Policy)),
		slog.String("due_date", recurrence.FormatDate(completion.DueDateSatisfied)),
		slog.String("next_due_date", recurrence.FormatDate(completion.NextDueDate)),
	)
	return CompleteResult{
		Equipment:  NewEquipmentView(updated),
		Completion: NewCompletionView(completion),
	}, nil
}

// ListCompletions returns a record's ledger newest first. limit <= 0 returns
// every entry.
func (s *Service) ListCompletions(ctx context.Context, equipmentID string, limit int) ([]CompletionView, error) {
	eq, err := s.getEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListCompletions(ctx, eq.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]CompletionView, 0, len(items))
	for _, item := range items {
		out = append(out, NewCompletionView(item))
	}
	return out, nil
}
