package model

type Completion struct {
	CompletionID     string  `gorm:"column:completion_id;type:text;primaryKey"`
	EquipmentID      string  `gorm:"column:equipment_record_id;type:text;not null;index:idx_completions_equipment,priority:1"`
	DueDateSatisfied *string `gorm:"column:due_date;type:text"`
	IntervalWeeks    int     `gorm:"column:interval_weeks;not null"`
	CompletedOn      string  `gorm:"column:completed_on;type:text;not null"`
	NextDueDate      string  `gorm:"column:next_due_date;type:text;not null"`
	Policy           string  `gorm:"column:policy;type:text;not null"`
	CompletedAt      string  `gorm:"column:completed_at;type:text;not null;index:idx_completions_equipment,priority:2"`
	CompletedBy      *string `gorm:"column:completed_by;type:text"`
}

func (Completion) TableName() string {
	return "completions"
}
