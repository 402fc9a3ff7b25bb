package tracker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/ports"
)

// CreateEquipmentInput registers a record. IntervalWeeks 0 falls back to the
// type's default and then to tracker.default_interval_weeks. A nil LeadWeeks
// takes the type's default lead. A nil Active means active.
type CreateEquipmentInput struct {
	ClientID      string
	SiteID        string
	TypeID        string
	Name          string
	AnchorDate    civil.Date
	DueDate       civil.Date
	IntervalWeeks int
	LeadWeeks     *int
	Active        *bool
	Timezone      string
	Notes         string
}

// UpdateEquipmentInput edits descriptive fields. nil leaves a field as is.
// The schedule (due date, interval) has its own operations.
type UpdateEquipmentInput struct {
	EquipmentID string
	Name        *string
	TypeID      *string
	AnchorDate  *civil.Date
	LeadWeeks   *int
	Active      *bool
	Timezone    *string
	Notes       *string
}

type RecalculateFrom string

const (
	RecalculateFromDueDate RecalculateFrom = "due"
	RecalculateFromAnchor  RecalculateFrom = "anchor"
)

func ParseRecalculateFrom(raw string) (RecalculateFrom, error) {
	switch RecalculateFrom(strings.ToLower(strings.TrimSpace(raw))) {
	case RecalculateFromDueDate, "due_date":
		return RecalculateFromDueDate, nil
	case RecalculateFromAnchor, "anchor_date":
		return RecalculateFromAnchor, nil
	default:
		return "", invalidInput("recalculate from must be due or anchor, got %q", raw)
	}
}

type ListEquipmentInput struct {
	Filter recurrence.Filter
	Sort   recurrence.SortOptions
}

func (s *Service) CreateEquipment(ctx context.Context, input CreateEquipmentInput) (EquipmentView, error) {
	if err := s.ready(ctx); err != nil {
		return EquipmentView{}, err
	}
	if input.IntervalWeeks < 0 {
		return EquipmentView{}, errs.Op("create equipment", "", recurrence.ErrInvalidInterval)
	}
	if input.LeadWeeks != nil && *input.LeadWeeks < 0 {
		return EquipmentView{}, invalidInput("lead weeks must not be negative")
	}
	clientID, err := requireID("client id", input.ClientID)
	if err != nil {
		return EquipmentView{}, err
	}
	siteID, err := requireID("site id", input.SiteID)
	if err != nil {
		return EquipmentView{}, err
	}

	var created recurrence.Equipment
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		site, err := s.repo.GetSite(txCtx, siteID)
		if err != nil {
			return err
		}
		if site.ClientID != clientID {
			return invalidInput("site %s does not belong to client %s", siteID, clientID)
		}

		interval := input.IntervalWeeks
		leadWeeks := 0
		typeID := strings.TrimSpace(input.TypeID)
		if typeID != "" {
			equipmentType, err := s.repo.GetEquipmentType(txCtx, typeID)
			if err != nil {
				return err
			}
			if interval == 0 {
				interval = equipmentType.DefaultIntervalWeeks
			}
			leadWeeks = equipmentType.DefaultLeadWeeks
		}
		if interval == 0 {
			interval = s.opts.DefaultIntervalWeeks
		}
		if input.LeadWeeks != nil {
			leadWeeks = *input.LeadWeeks
		}

		timezone := strings.TrimSpace(input.Timezone)
		if timezone == "" {
			timezone = site.Timezone
		}
		active := true
		if input.Active != nil {
			active = *input.Active
		}

		eq, err := recurrence.NewEquipment(recurrence.EquipmentSpec{
			ID:            s.newID(),
			ClientID:      clientID,
			SiteID:        siteID,
			TypeID:        typeID,
			Name:          input.Name,
			AnchorDate:    input.AnchorDate,
			DueDate:       input.DueDate,
			IntervalWeeks: interval,
			LeadWeeks:     leadWeeks,
			Active:        active,
			Timezone:      timezone,
			Notes:         strings.TrimSpace(input.Notes),
			CreatedAt:     s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := s.repo.CreateEquipment(txCtx, eq); err != nil {
			return err
		}
		created = eq
		return nil
	}); err != nil {
		return EquipmentView{}, err
	}

	s.cacheDueBestEffort(ctx, created)
	logging.Info(ctx, "equipment created",
		slog.String("equipment_id", created.ID),
		slog.String("state", string(created.State())),
		slog.Int("interval_weeks", created.IntervalWeeks),
	)
	return NewEquipmentView(created), nil
}

func (s *Service) GetEquipment(ctx context.Context, equipmentID string) (EquipmentView, error) {
	eq, err := s.getEquipment(ctx, equipmentID)
	if err != nil {
		return EquipmentView{}, err
	}
	return NewEquipmentView(eq), nil
}

func (s *Service) getEquipment(ctx context.Context, equipmentID string) (recurrence.Equipment, error) {
	if err := s.ready(ctx); err != nil {
		return recurrence.Equipment{}, err
	}
	id, err := requireID("equipment id", equipmentID)
	if err != nil {
		return recurrence.Equipment{}, err
	}
	eq, err := s.repo.GetEquipment(ctx, id)
	if err != nil {
		return recurrence.Equipment{}, errs.Op("get equipment", id, err)
	}
	return eq, nil
}

func (s *Service) ListEquipment(ctx context.Context, input ListEquipmentInput) ([]EquipmentView, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	records, err := s.repo.ListEquipment(ctx, input.Filter)
	if err != nil {
		return nil, err
	}
	return newEquipmentViews(recurrence.SortEquipment(records, input.Sort)), nil
}

func (s *Service) UpdateEquipment(ctx context.Context, input UpdateEquipmentInput) (EquipmentView, error) {
	return s.mutateEquipment(ctx, "update equipment", input.EquipmentID, func(txCtx context.Context, eq recurrence.Equipment) (recurrence.Equipment, error) {
		if input.Name != nil {
			eq.Name = strings.TrimSpace(*input.Name)
		}
		if input.TypeID != nil {
			typeID := strings.TrimSpace(*input.TypeID)
			if typeID != "" {
				if _, err := s.repo.GetEquipmentType(txCtx, typeID); err != nil {
					return eq, err
				}
			}
			eq.TypeID = typeID
		}
		if input.AnchorDate != nil {
			eq.AnchorDate = *input.AnchorDate
		}
		if input.LeadWeeks != nil {
			eq.LeadWeeks = *input.LeadWeeks
		}
		if input.Active != nil {
			eq.Active = *input.Active
		}
		if input.Timezone != nil {
			timezone := strings.TrimSpace(*input.Timezone)
			if timezone != "" {
				if _, err := time.LoadLocation(timezone); err != nil {
					return eq, invalidInput("timezone %q: %v", timezone, err)
				}
			}
			eq.Timezone = timezone
		}
		if input.Notes != nil {
			eq.Notes = strings.TrimSpace(*input.Notes)
		}
		return eq, nil
	})
}

// RescheduleEquipment changes the interval only; the due date stays put.
func (s *Service) RescheduleEquipment(ctx context.Context, equipmentID string, intervalWeeks int) (EquipmentView, error) {
	return s.mutateEquipment(ctx, "reschedule equipment", equipmentID, func(_ context.Context, eq recurrence.Equipment) (recurrence.Equipment, error) {
		return eq.Reschedule(intervalWeeks)
	})
}

// RecalculateEquipment recomputes the due date from the current due date or
// from the anchor, as the caller chooses.
func (s *Service) RecalculateEquipment(ctx context.Context, equipmentID string, from RecalculateFrom) (EquipmentView, error) {
	switch from {
	case RecalculateFromDueDate, RecalculateFromAnchor:
	default:
		return EquipmentView{}, invalidInput("recalculate from must be due or anchor, got %q", from)
	}
	return s.mutateEquipment(ctx, "recalculate equipment", equipmentID, func(_ context.Context, eq recurrence.Equipment) (recurrence.Equipment, error) {
		if from == RecalculateFromAnchor {
			return eq.RecalculateFromAnchor()
		}
		return eq.RecalculateFromDueDate()
	})
}

// SetDueDate overrides the due date. A zero date returns the record to the
// unscheduled state.
func (s *Service) SetDueDate(ctx context.Context, equipmentID string, due civil.Date) (EquipmentView, error) {
	return s.mutateEquipment(ctx, "set due date", equipmentID, func(_ context.Context, eq recurrence.Equipment) (recurrence.Equipment, error) {
		return eq.SetDueDate(due)
	})
}

// mutateEquipment loads, changes, validates and stores one record in a single
// transaction. Schedule changes go through the compare-and-set update.
func (s *Service) mutateEquipment(
	ctx context.Context,
	op string,
	equipmentID string,
	mutate func(txCtx context.Context, eq recurrence.Equipment) (recurrence.Equipment, error),
) (EquipmentView, error) {
	if err := s.ready(ctx); err != nil {
		return EquipmentView{}, err
	}
	id, err := requireID("equipment id", equipmentID)
	if err != nil {
		return EquipmentView{}, err
	}

	var updated recurrence.Equipment
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetEquipment(txCtx, id)
		if err != nil {
			return err
		}
		next, err := mutate(txCtx, current)
		if err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = s.now().UTC()

		if err := s.repo.UpdateSchedule(txCtx, ports.ScheduleUpdate{
			EquipmentID:           id,
			ExpectedDueDate:       current.DueDate,
			ExpectedIntervalWeeks: current.IntervalWeeks,
			DueDate:               next.DueDate,
			IntervalWeeks:         next.IntervalWeeks,
			UpdatedAt:             next.UpdatedAt,
		}); err != nil {
			return err
		}
		if err := s.repo.UpdateEquipment(txCtx, next); err != nil {
			return err
		}
		updated = next
		return nil
	}); err != nil {
		return EquipmentView{}, errs.Op(op, id, err)
	}

	s.cacheDueBestEffort(ctx, updated)
	return NewEquipmentView(updated), nil
}

// DeleteEquipment removes a record and its completion ledger. With
// BlockDeleteWithCompletions set, active records with completions are kept.
func (s *Service) DeleteEquipment(ctx context.Context, equipmentID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id, err := requireID("equipment id", equipmentID)
	if err != nil {
		return err
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		eq, err := s.repo.GetEquipment(txCtx, id)
		if err != nil {
			return err
		}
		if s.opts.BlockDeleteWithCompletions && eq.Active {
			count, err := s.repo.CountCompletions(txCtx, id)
			if err != nil {
				return err
			}
			if count > 0 {
				return ports.ErrDeleteBlocked
			}
		}
		return s.repo.DeleteEquipment(txCtx, id)
	}); err != nil {
		return errs.Op("delete equipment", id, err)
	}

	s.dropCacheBestEffort(ctx, id)
	logging.Info(ctx, "equipment deleted", slog.String("equipment_id", id))
	return nil
}
