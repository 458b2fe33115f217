package service

import (
	"time"

	"github.com/churchatlas/churchatlas/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type AuthEvent struct {
	Kind      string
	SubjectID string
	ClientIP  string
	Success   bool
	Detail    string
}

type AuthEventServiceConfig struct {
	MaxEvents int
	Database  *gorm.DB
}

// AuthEventService is an append-only diagnostic stream of auth
// decisions with bounded retention. Events go to the structured log
// and to a queryable table; nothing in the request path reads them.
type AuthEventService struct {
	config AuthEventServiceConfig
	logger zerolog.Logger
}

func NewAuthEventService(config AuthEventServiceConfig) *AuthEventService {
	return &AuthEventService{
		config: config,
	}
}

func (aes *AuthEventService) Init() error {
	if aes.config.MaxEvents <= 0 {
		aes.config.MaxEvents = 1000
	}
	aes.logger = log.With().Str("stream", "auth_events").Logger()
	return nil
}

// Record is best-effort. A failed insert never fails the auth
// decision it describes.
func (aes *AuthEventService) Record(event AuthEvent) {
	var logEvent *zerolog.Event

	if event.Success {
		logEvent = aes.logger.Info()
	} else {
		logEvent = aes.logger.Warn()
	}

	logEvent.
		Str("kind", event.Kind).
		Str("subject_id", event.SubjectID).
		Str("client_ip", event.ClientIP).
		Bool("success", event.Success).
		Msg(event.Detail)

	row := model.AuthEvent{
		ID:        uuid.New().String(),
		Kind:      event.Kind,
		SubjectID: event.SubjectID,
		ClientIP:  event.ClientIP,
		Success:   event.Success,
		Detail:    event.Detail,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := aes.config.Database.Create(&row).Error; err != nil {
		log.Debug().Err(err).Msg("Failed to persist auth event")
		return
	}

	aes.trim()
}

func (aes *AuthEventService) trim() {
	var count int64
	if err := aes.config.Database.Model(&model.AuthEvent{}).Count(&count).Error; err != nil {
		return
	}

	if count <= int64(aes.config.MaxEvents) {
		return
	}

	// Drop the oldest rows beyond the retention bound.
	err := aes.config.Database.Exec(
		"DELETE FROM auth_events WHERE id IN (SELECT id FROM auth_events ORDER BY created_at ASC LIMIT ?)",
		count-int64(aes.config.MaxEvents),
	).Error

	if err != nil {
		log.Debug().Err(err).Msg("Failed to trim auth events")
	}
}

func (aes *AuthEventService) Recent(limit int) ([]model.AuthEvent, error) {
	if limit < 1 || limit > aes.config.MaxEvents {
		limit = 100
	}

	var events []model.AuthEvent
	err := aes.config.Database.Order("created_at DESC").Limit(limit).Find(&events).Error

	if err != nil {
		return nil, err
	}

	return events, nil
}
