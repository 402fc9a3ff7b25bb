package model

type EquipmentType struct {
	TypeID               string `gorm:"column:type_id;type:text;primaryKey"`
	Name                 string `gorm:"column:name;type:text;not null;uniqueIndex"`
	DefaultIntervalWeeks int    `gorm:"column:default_interval_weeks;not null"`
	DefaultLeadWeeks     int    `gorm:"column:default_lead_weeks;not null;default:0"`
	CreatedAt            string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt            string `gorm:"column:updated_at;type:text;not null"`

	Equipment []Equipment `gorm:"foreignKey:TypeID;references:TypeID;constraint:OnDelete:SET NULL"`
}

func (EquipmentType) TableName() string {
	return "equipment_types"
}
