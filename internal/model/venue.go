package model

// Venue 场地表 — 对应 venues
type Venue struct {
	VenueID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"venue_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Address  string `gorm:"type:varchar(200)"                              json:"address,omitempty"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Venue) TableName() string { return "venues" }
