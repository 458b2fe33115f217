package model

// Session rows are written by the human login collaborator (the
// browser-facing site); this core only reads them during the authorize
// leg to learn who the human is and what role they hold.
type Session struct {
	UUID      string `gorm:"column:uuid;primaryKey"`
	SubjectID string `gorm:"column:subject_id;not null"`
	Role      string `gorm:"column:role;not null"`
	ExpiresAt int64  `gorm:"column:expires_at;not null"`
	CreatedAt int64  `gorm:"column:created_at;not null"`
}

func (Session) TableName() string {
	return "sessions"
}
