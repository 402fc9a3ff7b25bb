package model

type Site struct {
	SiteID    string `gorm:"column:site_id;type:text;primaryKey"`
	ClientID  string `gorm:"column:client_id;type:text;not null;index;uniqueIndex:idx_sites_client_name,priority:1"`
	Name      string `gorm:"column:name;type:text;not null;uniqueIndex:idx_sites_client_name,priority:2"`
	Timezone  string `gorm:"column:timezone;type:text;not null;default:''"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`

	Equipment []Equipment `gorm:"foreignKey:SiteID;references:SiteID;constraint:OnDelete:RESTRICT"`
}

func (Site) TableName() string {
	return "sites"
}
