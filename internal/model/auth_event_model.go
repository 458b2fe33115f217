package model

// AuthEvent is a diagnostic record of an auth decision (code issued,
// token redeemed, authorize denied). Retention is bounded; nothing in
// the request path depends on these rows.
type AuthEvent struct {
	ID        string `gorm:"column:id;primaryKey"`
	Kind      string `gorm:"column:kind;not null"`
	SubjectID string `gorm:"column:subject_id"`
	ClientIP  string `gorm:"column:client_ip"`
	Success   bool   `gorm:"column:success"`
	Detail    string `gorm:"column:detail"`
	CreatedAt int64  `gorm:"column:created_at;not null"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
