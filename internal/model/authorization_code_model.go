package model

// AuthorizationCode is a single-use credential minted at the end of the
// browser leg of the OAuth flow. Redemption must flip Consumed with a
// conditional update so two racing token requests cannot both succeed.
type AuthorizationCode struct {
	Code                string `gorm:"column:code;primaryKey"`
	ClientID            string `gorm:"column:client_id;not null"`
	SubjectID           string `gorm:"column:subject_id;not null"`
	Role                string `gorm:"column:role;not null"`
	RedirectURI         string `gorm:"column:redirect_uri;not null"`
	Scope               string `gorm:"column:scope"`
	CodeChallenge       string `gorm:"column:code_challenge;not null"`
	CodeChallengeMethod string `gorm:"column:code_challenge_method;not null"`
	Consumed            bool   `gorm:"column:consumed;default:false"`
	ExpiresAt           int64  `gorm:"column:expires_at;not null"`
	CreatedAt           int64  `gorm:"column:created_at;not null"`
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}
