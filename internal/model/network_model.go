package model

type Network struct {
	ID            uint   `gorm:"column:id;primaryKey"`
	Path          string `gorm:"column:path;uniqueIndex;not null"`
	Name          string `gorm:"column:name;not null"`
	Website       string `gorm:"column:website"`
	ContactEmail  string `gorm:"column:contact_email"`
	InternalNotes string `gorm:"column:internal_notes"`
	DeletedAt     int64  `gorm:"column:deleted_at;default:0"`
	CreatedAt     int64  `gorm:"column:created_at;not null"`
	UpdatedAt     int64  `gorm:"column:updated_at;not null"`
}

func (Network) TableName() string {
	return "networks"
}
