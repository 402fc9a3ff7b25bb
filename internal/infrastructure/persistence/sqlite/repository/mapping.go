package repository

import (
	"time"

	"cloud.google.com/go/civil"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/infrastructure/persistence/sqlite/model"
	"duetrack/internal/ports"
)

// Fixed-width so text columns sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func dateColumn(d civil.Date) *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func parseDateColumn(raw *string) (civil.Date, error) {
	if raw == nil {
		return civil.Date{}, nil
	}
	return recurrence.ParseDate(*raw)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func mapClient(row model.Client) ports.Client {
	return ports.Client{
		ClientID:  row.ClientID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}
}

func mapSite(row model.Site) ports.Site {
	return ports.Site{
		SiteID:    row.SiteID,
		ClientID:  row.ClientID,
		Name:      row.Name,
		Timezone:  row.Timezone,
		CreatedAt: row.CreatedAt,
	}
}

func typeRow(t ports.EquipmentType) model.EquipmentType {
	return model.EquipmentType{
		TypeID:               t.TypeID,
		Name:                 t.Name,
		DefaultIntervalWeeks: t.DefaultIntervalWeeks,
		DefaultLeadWeeks:     t.DefaultLeadWeeks,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

func mapEquipmentType(row model.EquipmentType) ports.EquipmentType {
	return ports.EquipmentType{
		TypeID:               row.TypeID,
		Name:                 row.Name,
		DefaultIntervalWeeks: row.DefaultIntervalWeeks,
		DefaultLeadWeeks:     row.DefaultLeadWeeks,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func equipmentRow(eq recurrence.Equipment) model.Equipment {
	return model.Equipment{
		EquipmentID:   eq.ID,
		ClientID:      eq.ClientID,
		SiteID:        eq.SiteID,
		TypeID:        optionalString(eq.TypeID),
		Name:          eq.Name,
		AnchorDate:    eq.AnchorDate.String(),
		DueDate:       dateColumn(eq.DueDate),
		IntervalWeeks: eq.IntervalWeeks,
		LeadWeeks:     eq.LeadWeeks,
		Active:        eq.Active,
		Timezone:      eq.Timezone,
		Notes:         eq.Notes,
		CreatedAt:     formatTimestamp(eq.CreatedAt),
		UpdatedAt:     formatTimestamp(eq.UpdatedAt),
	}
}

func mapEquipment(row model.Equipment) (recurrence.Equipment, error) {
	anchor, err := recurrence.ParseDate(row.AnchorDate)
	if err != nil {
		return recurrence.Equipment{}, errs.Op("decode anchor_date", row.EquipmentID, err)
	}
	due, err := parseDateColumn(row.DueDate)
	if err != nil {
		return recurrence.Equipment{}, errs.Op("decode due_date", row.EquipmentID, err)
	}
	createdAt, err := parseTimestamp(row.CreatedAt)
	if err != nil {
		return recurrence.Equipment{}, errs.Op("decode created_at", row.EquipmentID, err)
	}
	updatedAt, err := parseTimestamp(row.UpdatedAt)
	if err != nil {
		return recurrence.Equipment{}, errs.Op("decode updated_at", row.EquipmentID, err)
	}

	return recurrence.Equipment{
		ID:            row.EquipmentID,
		ClientID:      row.ClientID,
		SiteID:        row.SiteID,
		TypeID:        derefString(row.TypeID),
		Name:          row.Name,
		AnchorDate:    anchor,
		DueDate:       due,
		IntervalWeeks: row.IntervalWeeks,
		LeadWeeks:     row.LeadWeeks,
		Active:        row.Active,
		Timezone:      row.Timezone,
		Notes:         row.Notes,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func completionRow(c recurrence.Completion) model.Completion {
	return model.Completion{
		CompletionID:     c.ID,
		EquipmentID:      c.EquipmentID,
		DueDateSatisfied: dateColumn(c.DueDateSatisfied),
		IntervalWeeks:    c.IntervalWeeks,
		CompletedOn:      c.CompletedOn.String(),
		NextDueDate:      c.NextDueDate.String(),
		Policy:           string(c.Policy),
		CompletedAt:      formatTimestamp(c.CompletedAt),
		CompletedBy:      optionalString(c.CompletedBy),
	}
}

func mapCompletion(row model.Completion) (recurrence.Completion, error) {
	satisfied, err := parseDateColumn(row.DueDateSatisfied)
	if err != nil {
		return recurrence.Completion{}, errs.Op("decode completion due_date", row.CompletionID, err)
	}
	completedOn, err := recurrence.ParseDate(row.CompletedOn)
	if err != nil {
		return recurrence.Completion{}, errs.Op("decode completed_on", row.CompletionID, err)
	}
	next, err := recurrence.ParseDate(row.NextDueDate)
	if err != nil {
		return recurrence.Completion{}, errs.Op("decode next_due_date", row.CompletionID, err)
	}
	completedAt, err := parseTimestamp(row.CompletedAt)
	if err != nil {
		return recurrence.Completion{}, errs.Op("decode completed_at", row.CompletionID, err)
	}

	return recurrence.Completion{
		ID:               row.CompletionID,
		EquipmentID:      row.EquipmentID,
		DueDateSatisfied: satisfied,
		IntervalWeeks:    row.IntervalWeeks,
		CompletedOn:      completedOn,
		NextDueDate:      next,
		Policy:           recurrence.AdvancePolicy(row.Policy),
		CompletedAt:      completedAt,
		CompletedBy:      derefString(row.CompletedBy),
	}, nil
}
