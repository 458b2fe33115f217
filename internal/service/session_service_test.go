package service_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/model"
	"github.com/churchatlas/churchatlas/internal/service"

	"github.com/gin-gonic/gin"
	"gotest.tools/v3/assert"
)

func sessionContext(cookieName string, cookieValue string) *gin.Context {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/oauth/authorize", nil)

	if cookieValue != "" {
		c.Request.AddCookie(&http.Cookie{Name: cookieName, Value: cookieValue})
	}

	return c
}

func TestSessionResolve(t *testing.T) {
	db := newTestDatabase(t)

	sessionService := service.NewSessionService(service.SessionServiceConfig{
		CookieName: "churchatlas-session",
		Database:   db,
	})
	assert.NilError(t, sessionService.Init())

	err := db.Create(&model.Session{
		UUID:      "live-session",
		SubjectID: "user-1",
		Role:      config.RoleContributor,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		CreatedAt: time.Now().Unix(),
	}).Error
	assert.NilError(t, err)

	err = db.Create(&model.Session{
		UUID:      "stale-session",
		SubjectID: "user-2",
		Role:      config.RoleContributor,
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		CreatedAt: time.Now().Add(-2 * time.Hour).Unix(),
	}).Error
	assert.NilError(t, err)

	identity, err := sessionService.Resolve(sessionContext("churchatlas-session", "live-session"))
	assert.NilError(t, err)
	assert.Assert(t, identity != nil)
	assert.Equal(t, "user-1", identity.SubjectID)

	// Expired and unknown sessions resolve to no identity, not an error
	identity, err = sessionService.Resolve(sessionContext("churchatlas-session", "stale-session"))
	assert.NilError(t, err)
	assert.Assert(t, identity == nil)

	identity, err = sessionService.Resolve(sessionContext("churchatlas-session", "no-such-session"))
	assert.NilError(t, err)
	assert.Assert(t, identity == nil)

	identity, err = sessionService.Resolve(sessionContext("churchatlas-session", ""))
	assert.NilError(t, err)
	assert.Assert(t, identity == nil)
}
