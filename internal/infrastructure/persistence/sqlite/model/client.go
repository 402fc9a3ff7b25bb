package model

type Client struct {
	ClientID  string `gorm:"column:client_id;type:text;primaryKey"`
	Name      string `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`

	Sites     []Site      `gorm:"foreignKey:ClientID;references:ClientID;constraint:OnDelete:RESTRICT"`
	Equipment []Equipment `gorm:"foreignKey:ClientID;references:ClientID;constraint:OnDelete:RESTRICT"`
}

func (Client) TableName() string {
	return "clients"
}
