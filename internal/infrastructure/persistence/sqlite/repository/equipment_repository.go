package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/infrastructure/persistence/sqlite/model"
	"duetrack/internal/ports"
)

func (r *TrackerRepository) CreateEquipment(ctx context.Context, eq recurrence.Equipment) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := equipmentRow(eq)
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return errs.Op("insert equipment", eq.ID, err)
	}
	return nil
}

func (r *TrackerRepository) GetEquipment(ctx context.Context, equipmentID string) (recurrence.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return recurrence.Equipment{}, err
	}

	var row model.Equipment
	if err := db.Where("equipment_id = ?", equipmentID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return recurrence.Equipment{}, ports.ErrEquipmentNotFound
		}
		return recurrence.Equipment{}, errs.Op("query equipment", equipmentID, err)
	}
	return mapEquipment(row)
}

func (r *TrackerRepository) ListEquipment(ctx context.Context, filter recurrence.Filter) ([]recurrence.Equipment, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Equipment{})
	if id := strings.TrimSpace(filter.ClientID); id != "" {
		query = query.Where("client_id = ?", id)
	}
	if id := strings.TrimSpace(filter.SiteID); id != "" {
		query = query.Where("site_id = ?", id)
	}
	if id := strings.TrimSpace(filter.TypeID); id != "" {
		query = query.Where("type_id = ?", id)
	}
	if filter.ExcludeInactive {
		query = query.Where("active = ?", true)
	}

	var rows []model.Equipment
	if err := query.Order("name asc").Order("equipment_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query equipment")
	}

	items := make([]recurrence.Equipment, 0, len(rows))
	for _, row := range rows {
		eq, err := mapEquipment(row)
		if err != nil {
			return nil, err
		}
		items = append(items, eq)
	}
	return items, nil
}

// UpdateEquipment writes every mutable column of eq.
func (r *TrackerRepository) UpdateEquipment(ctx context.Context, eq recurrence.Equipment) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := equipmentRow(eq)
	result := db.Model(&model.Equipment{}).
		Where("equipment_id = ?", eq.ID).
		Updates(map[string]any{
			"type_id":        row.TypeID,
			"name":           row.Name,
			"anchor_date":    row.AnchorDate,
			"due_date":       row.DueDate,
			"interval_weeks": row.IntervalWeeks,
			"lead_weeks":     row.LeadWeeks,
			"active":         row.Active,
			"timezone":       row.Timezone,
			"notes":          row.Notes,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return errs.Op("update equipment", eq.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrEquipmentNotFound
	}
	return nil
}

// UpdateSchedule moves due_date/interval_weeks only when the stored values
// still equal the expected ones.
func (r *TrackerRepository) UpdateSchedule(ctx context.Context, update ports.ScheduleUpdate) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	query := db.Model(&model.Equipment{}).
		Where("equipment_id = ?", update.EquipmentID).
		Where("interval_weeks = ?", update.ExpectedIntervalWeeks)
	if expected := dateColumn(update.ExpectedDueDate); expected == nil {
		query = query.Where("due_date IS NULL")
	} else {
		query = query.Where("due_date = ?", *expected)
	}

	result := query.Updates(map[string]any{
		"due_date":       dateColumn(update.DueDate),
		"interval_weeks": update.IntervalWeeks,
		"updated_at":     formatTimestamp(update.UpdatedAt),
	})
	if result.Error != nil {
		return errs.Op("update schedule", update.EquipmentID, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Equipment{}).Where("equipment_id = ?", update.EquipmentID).Count(&count).Error; err != nil {
		return errs.Op("check equipment", update.EquipmentID, err)
	}
	if count == 0 {
		return ports.ErrEquipmentNotFound
	}
	return errs.Op("update schedule", update.EquipmentID, ports.ErrConcurrentUpdate)
}

// DeleteEquipment removes the record together with its completion ledger.
func (r *TrackerRepository) DeleteEquipment(ctx context.Context, equipmentID string) error {
	return r.inTx(ctx, func(db *gorm.DB) error {
		if err := db.Where("equipment_record_id = ?", equipmentID).Delete(&model.Completion{}).Error; err != nil {
			return errs.Op("delete completions", equipmentID, err)
		}
		result := db.Where("equipment_id = ?", equipmentID).Delete(&model.Equipment{})
		if result.Error != nil {
			return errs.Op("delete equipment", equipmentID, result.Error)
		}
		if result.RowsAffected == 0 {
			return ports.ErrEquipmentNotFound
		}
		return nil
	})
}

func (r *TrackerRepository) AppendCompletion(ctx context.Context, completion recurrence.Completion) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := completionRow(completion)
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return errs.Op("insert completion", completion.EquipmentID, err)
	}
	return nil
}

// ListCompletions returns the ledger newest first. limit <= 0 means all.
func (r *TrackerRepository) ListCompletions(ctx context.Context, equipmentID string, limit int) ([]recurrence.Completion, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Completion{}).
		Where("equipment_record_id = ?", equipmentID).
		Order("completed_at desc").
		Order("completion_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Completion
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Op("query completions", equipmentID, err)
	}

	items := make([]recurrence.Completion, 0, len(rows))
	for _, row := range rows {
		completion, err := mapCompletion(row)
		if err != nil {
			return nil, err
		}
		items = append(items, completion)
	}
	return items, nil
}

func (r *TrackerRepository) CountCompletions(ctx context.Context, equipmentID string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Completion{}).Where("equipment_record_id = ?", equipmentID).Count(&count).Error; err != nil {
		return 0, errs.Op("count completions", equipmentID, err)
	}
	return count, nil
}
