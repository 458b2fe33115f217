package model

// AccessToken is an opaque bearer credential. The role is bound at
// issuance time; expiry is checked at resolve time and there is no
// refresh or revocation path.
type AccessToken struct {
	Token      string `gorm:"column:token;primaryKey"`
	SubjectID  string `gorm:"column:subject_id;not null"`
	Role       string `gorm:"column:role;not null"`
	Scope      string `gorm:"column:scope"`
	ExpiresAt  int64  `gorm:"column:expires_at;not null"`
	CreatedAt  int64  `gorm:"column:created_at;not null"`
	LastUsedAt int64  `gorm:"column:last_used_at;default:0"`
}

func (AccessToken) TableName() string {
	return "access_tokens"
}
