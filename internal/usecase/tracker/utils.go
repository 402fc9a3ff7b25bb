package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/ports"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func cacheEquipmentDueKey(equipmentID string) string {
	return "equipment_due:" + equipmentID
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func requireID(field string, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidInput("%s is required", field)
	}
	return value, nil
}

// cacheDueBestEffort records the current due date; "" marks an unscheduled
// record.
func (s *Service) cacheDueBestEffort(ctx context.Context, eq recurrence.Equipment) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cacheEquipmentDueKey(eq.ID), recurrence.FormatDate(eq.DueDate), 0); err != nil {
		logging.Warn(ctx, "cache set failed",
			slog.String("key", cacheEquipmentDueKey(eq.ID)),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func (s *Service) dropCacheBestEffort(ctx context.Context, equipmentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheEquipmentDueKey(equipmentID)); err != nil {
		logging.Warn(ctx, "cache delete failed",
			slog.String("key", cacheEquipmentDueKey(equipmentID)),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func (s *Service) publishBestEffort(ctx context.Context, eq recurrence.Equipment, completion recurrence.Completion) {
	if s.publisher == nil {
		return
	}
	event := ports.CompletionEvent{
		CompletionID:     completion.ID,
		EquipmentID:      completion.EquipmentID,
		ClientID:         eq.ClientID,
		SiteID:           eq.SiteID,
		DueDateSatisfied: recurrence.FormatDate(completion.DueDateSatisfied),
		NextDueDate:      recurrence.FormatDate(completion.NextDueDate),
		IntervalWeeks:    completion.IntervalWeeks,
		Policy:           string(completion.Policy),
		CompletedOn:      recurrence.FormatDate(completion.CompletedOn),
		CompletedAt:      formatTime(completion.CompletedAt),
		CompletedBy:      completion.CompletedBy,
	}
	if err := s.publisher.PublishCompletion(ctx, event); err != nil {
		logging.Warn(ctx, "completion event publish failed",
			slog.String("completion_id", completion.ID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}
