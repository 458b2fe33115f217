package service

import (
	"errors"
	"time"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SessionResolver is the contract the human login collaborator has to
// satisfy: given the inbound request, produce a subject id and role, or
// nothing. How the human actually authenticated is not this core's
// concern.
type SessionResolver interface {
	Resolve(c *gin.Context) (*config.McpIdentity, error)
}

type SessionServiceConfig struct {
	CookieName string
	Database   *gorm.DB
}

// SessionService resolves the browser session cookie against the
// shared sessions table the surrounding site maintains.
type SessionService struct {
	config SessionServiceConfig
}

func NewSessionService(config SessionServiceConfig) *SessionService {
	return &SessionService{
		config: config,
	}
}

func (ss *SessionService) Init() error {
	if ss.config.CookieName == "" {
		ss.config.CookieName = "churchatlas-session"
	}
	return nil
}

func (ss *SessionService) CookieName() string {
	return ss.config.CookieName
}

func (ss *SessionService) Resolve(c *gin.Context) (*config.McpIdentity, error) {
	cookie, err := c.Cookie(ss.config.CookieName)

	if err != nil || cookie == "" {
		return nil, nil
	}

	var session model.Session
	err = ss.config.Database.Where("uuid = ?", cookie).First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if time.Now().Unix() > session.ExpiresAt {
		return nil, nil
	}

	return &config.McpIdentity{
		SubjectID: session.SubjectID,
		Role:      session.Role,
	}, nil
}
