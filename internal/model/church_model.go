package model

// Church is a single congregation in the directory. The table is owned
// by the surrounding site; this core layers soft-delete and optimistic
// concurrency discipline on top. UpdatedAt is the concurrency token,
// in unix milliseconds. DeletedAt of zero means active.
type Church struct {
	ID            uint    `gorm:"column:id;primaryKey"`
	Path          string  `gorm:"column:path;uniqueIndex;not null"`
	Name          string  `gorm:"column:name;not null"`
	City          string  `gorm:"column:city"`
	Country       string  `gorm:"column:country"`
	Website       string  `gorm:"column:website"`
	Latitude      float64 `gorm:"column:latitude"`
	Longitude     float64 `gorm:"column:longitude"`
	RegionID      uint    `gorm:"column:region_id"`
	NetworkID     uint    `gorm:"column:network_id"`
	ContactEmail  string  `gorm:"column:contact_email"`
	InternalNotes string  `gorm:"column:internal_notes"`
	DeletedAt     int64   `gorm:"column:deleted_at;default:0"`
	CreatedAt     int64   `gorm:"column:created_at;not null"`
	UpdatedAt     int64   `gorm:"column:updated_at;not null"`
}

func (Church) TableName() string {
	return "churches"
}
