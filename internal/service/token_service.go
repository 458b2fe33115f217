package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrInvalidGrant = errors.New("invalid grant")
	ErrInvalidToken = errors.New("invalid token")
)

type TokenServiceConfig struct {
	AccessTokenExpiry int
	AuthCodeExpiry    int
	Database          *gorm.DB
}

type TokenService struct {
	config TokenServiceConfig
}

func NewTokenService(config TokenServiceConfig) *TokenService {
	return &TokenService{
		config: config,
	}
}

func (ts *TokenService) Init() error {
	if ts.config.AccessTokenExpiry <= 0 {
		ts.config.AccessTokenExpiry = 3600
	}
	if ts.config.AuthCodeExpiry <= 0 {
		ts.config.AuthCodeExpiry = 600
	}
	return nil
}

// GenerateAuthorizationCode mints a single-use code bound to the
// client, redirect URI and PKCE challenge presented on the authorize
// leg.
func (ts *TokenService) GenerateAuthorizationCode(subjectID string, role string, clientID string, redirectURI string, scope string, codeChallenge string, codeChallengeMethod string) (string, error) {
	code := uuid.New().String()
	now := time.Now()

	authCode := model.AuthorizationCode{
		Code:                code,
		ClientID:            clientID,
		SubjectID:           subjectID,
		Role:                role,
		RedirectURI:         redirectURI,
		Scope:               scope,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		Consumed:            false,
		ExpiresAt:           now.Add(time.Duration(ts.config.AuthCodeExpiry) * time.Second).Unix(),
		CreatedAt:           now.Unix(),
	}

	if err := ts.config.Database.Create(&authCode).Error; err != nil {
		return "", fmt.Errorf("failed to store authorization code: %w", err)
	}

	return code, nil
}

// RedeemAuthorizationCode exchanges a code and its PKCE verifier for a
// bearer token. The code is consumed with a conditional update before
// anything else is checked, so a code that fails any later check stays
// burned and two racing exchanges can never both succeed.
func (ts *TokenService) RedeemAuthorizationCode(code string, clientID string, redirectURI string, codeVerifier string) (*model.AccessToken, error) {
	var authCode model.AuthorizationCode
	err := ts.config.Database.Where("code = ?", code).First(&authCode).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	res := ts.config.Database.Model(&model.AuthorizationCode{}).
		Where("code = ? AND consumed = ?", code, false).
		Update("consumed", true)

	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected != 1 {
		log.Warn().Str("client_id", authCode.ClientID).Msg("Authorization code replayed")
		return nil, ErrInvalidGrant
	}

	if time.Now().Unix() > authCode.ExpiresAt {
		return nil, ErrInvalidGrant
	}

	if authCode.ClientID != clientID || authCode.RedirectURI != redirectURI {
		return nil, ErrInvalidGrant
	}

	if !verifyCodeChallenge(authCode.CodeChallenge, authCode.CodeChallengeMethod, codeVerifier) {
		return nil, ErrInvalidGrant
	}

	now := time.Now()

	token := model.AccessToken{
		Token:     uuid.New().String() + uuid.New().String(),
		SubjectID: authCode.SubjectID,
		Role:      authCode.Role,
		Scope:     authCode.Scope,
		ExpiresAt: now.Add(time.Duration(ts.config.AccessTokenExpiry) * time.Second).Unix(),
		CreatedAt: now.Unix(),
	}

	if err := ts.config.Database.Create(&token).Error; err != nil {
		return nil, fmt.Errorf("failed to store access token: %w", err)
	}

	return &token, nil
}

// ResolveToken turns a bearer string into an identity. Expired tokens
// are rejected, never refreshed. The last-used touch is best-effort.
func (ts *TokenService) ResolveToken(token string, touchLastUsed bool) (*config.McpIdentity, error) {
	var accessToken model.AccessToken
	err := ts.config.Database.Where("token = ?", token).First(&accessToken).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if time.Now().Unix() > accessToken.ExpiresAt {
		return nil, ErrInvalidToken
	}

	if touchLastUsed {
		err := ts.config.Database.Model(&model.AccessToken{}).
			Where("token = ?", token).
			Update("last_used_at", time.Now().Unix()).Error
		if err != nil {
			log.Debug().Err(err).Msg("Failed to update token last used timestamp")
		}
	}

	return &config.McpIdentity{
		SubjectID: accessToken.SubjectID,
		Role:      accessToken.Role,
	}, nil
}

func (ts *TokenService) GetAccessTokenExpiry() int {
	return ts.config.AccessTokenExpiry
}

// Sweep removes consumed or expired codes and expired tokens. Storage
// hygiene only, expiry is always checked at the point of use.
func (ts *TokenService) Sweep() error {
	now := time.Now().Unix()

	err := ts.config.Database.
		Where("consumed = ? OR expires_at < ?", true, now).
		Delete(&model.AuthorizationCode{}).Error

	if err != nil {
		return err
	}

	return ts.config.Database.
		Where("expires_at < ?", now).
		Delete(&model.AccessToken{}).Error
}

func verifyCodeChallenge(challenge string, method string, verifier string) bool {
	if verifier == "" {
		return false
	}

	switch method {
	case "S256":
		hash := sha256.Sum256([]byte(verifier))
		computed := base64.RawURLEncoding.EncodeToString(hash[:])
		return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
	case "plain":
		return subtle.ConstantTimeCompare([]byte(verifier), []byte(challenge)) == 1
	default:
		return false
	}
}
