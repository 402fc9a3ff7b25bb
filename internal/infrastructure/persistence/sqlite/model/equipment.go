package model

// Equipment stores dates as yyyy-mm-dd text; DueDate is NULL while the record
// is unscheduled.
type Equipment struct {
	EquipmentID   string  `gorm:"column:equipment_id;type:text;primaryKey"`
	ClientID      string  `gorm:"column:client_id;type:text;not null;index"`
	SiteID        string  `gorm:"column:site_id;type:text;not null;index"`
	TypeID        *string `gorm:"column:type_id;type:text;index"`
	Name          string  `gorm:"column:name;type:text;not null"`
	AnchorDate    string  `gorm:"column:anchor_date;type:text;not null"`
	DueDate       *string `gorm:"column:due_date;type:text;index"`
	IntervalWeeks int     `gorm:"column:interval_weeks;not null"`
	LeadWeeks     int     `gorm:"column:lead_weeks;not null;default:0"`
	Active        bool    `gorm:"column:active;not null"`
	Timezone      string  `gorm:"column:timezone;type:text;not null;default:''"`
	Notes         string  `gorm:"column:notes;type:text;not null;default:''"`
	CreatedAt     string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt     string  `gorm:"column:updated_at;type:text;not null"`

	Completions []Completion `gorm:"foreignKey:EquipmentID;references:EquipmentID;constraint:OnDelete:CASCADE"`
}

func (Equipment) TableName() string {
	return "equipment"
}
