package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type OAuthControllerConfig struct {
	AppURL      string
	LoginURL    string
	Secret      string
	StateExpiry int
}

type OAuthController struct {
	config   OAuthControllerConfig
	router   *gin.RouterGroup
	tokens   *service.TokenService
	sessions service.SessionResolver
	events   *service.AuthEventService
}

func NewOAuthController(config OAuthControllerConfig, router *gin.RouterGroup, tokens *service.TokenService, sessions service.SessionResolver, events *service.AuthEventService) *OAuthController {
	if config.StateExpiry <= 0 {
		config.StateExpiry = 600
	}
	return &OAuthController{
		config:   config,
		router:   router,
		tokens:   tokens,
		sessions: sessions,
		events:   events,
	}
}

func (controller *OAuthController) SetupRoutes() {
	oauthGroup := controller.router.Group("/oauth")
	oauthGroup.GET("/authorize", controller.authorizeHandler)
	oauthGroup.GET("/authorize/callback", controller.callbackHandler)
	oauthGroup.POST("/token", controller.tokenHandler)
}

// pendingAuthorization is the OAuth request round-tripped through the
// external login collaborator as an opaque, HMAC-signed state blob.
type pendingAuthorization struct {
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	Scope               string `json:"scope"`
	State               string `json:"state"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
	ExpiresAt           int64  `json:"expires_at"`
}

func (controller *OAuthController) authorizeHandler(c *gin.Context) {
	pending, ok := controller.validateAuthorizeParams(c)
	if !ok {
		return
	}

	controller.completeAuthorization(c, pending)
}

// callbackHandler re-enters the flow after the login collaborator sent
// the human back. The signed state blob is the only thing trusted; a
// bad tag or an expired blob restarts the flow from scratch.
func (controller *OAuthController) callbackHandler(c *gin.Context) {
	pending, err := controller.decodeState(c.Query("state"))

	if err != nil {
		log.Warn().Err(err).Msg("Rejected authorize callback state")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Invalid or expired state",
		})
		return
	}

	controller.completeAuthorization(c, pending)
}

func (controller *OAuthController) validateAuthorizeParams(c *gin.Context) (*pendingAuthorization, bool) {
	redirectURI := c.Query("redirect_uri")
	responseType := c.Query("response_type")
	codeChallenge := c.Query("code_challenge")
	codeChallengeMethod := c.Query("code_challenge_method")
	state := c.Query("state")

	// Until the redirect URI itself checks out, errors are plain JSON
	// rather than redirects.
	parsed, err := url.Parse(redirectURI)
	if redirectURI == "" || err != nil || !parsed.IsAbs() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "A valid absolute redirect_uri is required",
		})
		return nil, false
	}

	if responseType != config.SupportedResponseType {
		controller.redirectError(c, redirectURI, state, "unsupported_response_type", "Only response_type=code is supported")
		return nil, false
	}

	if codeChallenge == "" {
		controller.redirectError(c, redirectURI, state, "invalid_request", "code_challenge is required")
		return nil, false
	}

	if !supportedChallengeMethod(codeChallengeMethod) {
		controller.redirectError(c, redirectURI, state, "invalid_request", "code_challenge_method must be S256 or plain")
		return nil, false
	}

	clientID := c.Query("client_id")
	if clientID == "" {
		clientID = config.AnonymousClientID
	}

	scope := c.Query("scope")
	if scope == "" {
		scope = config.DefaultScope
	}

	return &pendingAuthorization{
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		Scope:               scope,
		State:               state,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
		ExpiresAt:           time.Now().Add(time.Duration(controller.config.StateExpiry) * time.Second).Unix(),
	}, true
}

func (controller *OAuthController) completeAuthorization(c *gin.Context, pending *pendingAuthorization) {
	identity, err := controller.sessions.Resolve(c)

	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve human session")
		controller.redirectError(c, pending.RedirectURI, pending.State, "server_error", "Internal server error")
		return
	}

	if identity == nil {
		controller.redirectToLogin(c, pending)
		return
	}

	if !identity.CanWrite() {
		controller.events.Record(service.AuthEvent{
			Kind:      "authorize_denied",
			SubjectID: identity.SubjectID,
			ClientIP:  c.ClientIP(),
			Success:   false,
			Detail:    "insufficient role for authorization",
		})
		controller.redirectError(c, pending.RedirectURI, pending.State, "access_denied", "Insufficient role")
		return
	}

	code, err := controller.tokens.GenerateAuthorizationCode(identity.SubjectID, identity.Role, pending.ClientID, pending.RedirectURI, pending.Scope, pending.CodeChallenge, pending.CodeChallengeMethod)

	if err != nil {
		log.Error().Err(err).Msg("Failed to generate authorization code")
		controller.redirectError(c, pending.RedirectURI, pending.State, "server_error", "Internal server error")
		return
	}

	controller.events.Record(service.AuthEvent{
		Kind:      "code_issued",
		SubjectID: identity.SubjectID,
		ClientIP:  c.ClientIP(),
		Success:   true,
		Detail:    fmt.Sprintf("client %s", pending.ClientID),
	})

	redirectURL, err := url.Parse(pending.RedirectURI)
	if err != nil {
		controller.redirectError(c, pending.RedirectURI, pending.State, "invalid_request", "Invalid redirect_uri")
		return
	}

	query := redirectURL.Query()
	query.Set("code", code)
	if pending.State != "" {
		// The caller's own state goes back untouched for its CSRF
		// correlation.
		query.Set("state", pending.State)
	}
	redirectURL.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, redirectURL.String())
}

func (controller *OAuthController) redirectToLogin(c *gin.Context, pending *pendingAuthorization) {
	blob, err := controller.encodeState(pending)

	if err != nil {
		log.Error().Err(err).Msg("Failed to encode authorize state")
		controller.redirectError(c, pending.RedirectURI, pending.State, "server_error", "Internal server error")
		return
	}

	callbackURL := fmt.Sprintf("%s/oauth/authorize/callback?state=%s",
		strings.TrimSuffix(controller.config.AppURL, "/"), url.QueryEscape(blob))

	loginURL := fmt.Sprintf("%s?redirect_uri=%s",
		controller.config.LoginURL, url.QueryEscape(callbackURL))

	c.Redirect(http.StatusFound, loginURL)
}

func (controller *OAuthController) tokenHandler(c *gin.Context) {
	grantType := c.PostForm("grant_type")

	if grantType != config.SupportedGrantType {
		controller.tokenError(c, "unsupported_grant_type", "Only the authorization_code grant type is supported")
		return
	}

	code := c.PostForm("code")
	redirectURI := c.PostForm("redirect_uri")
	codeVerifier := c.PostForm("code_verifier")

	if code == "" || redirectURI == "" || codeVerifier == "" {
		controller.tokenError(c, "invalid_request", "code, redirect_uri and code_verifier are required")
		return
	}

	clientID := c.PostForm("client_id")
	if clientID == "" {
		clientID = config.AnonymousClientID
	}

	token, err := controller.tokens.RedeemAuthorizationCode(code, clientID, redirectURI, codeVerifier)

	if err != nil {
		if err != service.ErrInvalidGrant {
			log.Error().Err(err).Msg("Failed to redeem authorization code")
		}
		controller.events.Record(service.AuthEvent{
			Kind:     "code_redeem_failed",
			ClientIP: c.ClientIP(),
			Success:  false,
			Detail:   fmt.Sprintf("client %s", clientID),
		})
		controller.tokenError(c, "invalid_grant", "Invalid, expired or already used authorization code")
		return
	}

	controller.events.Record(service.AuthEvent{
		Kind:      "token_issued",
		SubjectID: token.SubjectID,
		ClientIP:  c.ClientIP(),
		Success:   true,
		Detail:    fmt.Sprintf("client %s", clientID),
	})

	c.JSON(http.StatusOK, gin.H{
		"access_token": token.Token,
		"token_type":   "Bearer",
		"expires_in":   controller.tokens.GetAccessTokenExpiry(),
		"scope":        token.Scope,
	})
}

// State blob helpers. The blob is base64url(json) plus an HMAC-SHA256
// tag; the round-tripped value is never trusted without the tag.

func (controller *OAuthController) encodeState(pending *pendingAuthorization) (string, error) {
	payload, err := json.Marshal(pending)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + controller.signState(encoded), nil
}

func (controller *OAuthController) decodeState(blob string) (*pendingAuthorization, error) {
	encoded, tag, found := strings.Cut(blob, ".")
	if !found {
		return nil, fmt.Errorf("state blob is not signed")
	}

	if !hmac.Equal([]byte(controller.signState(encoded)), []byte(tag)) {
		return nil, fmt.Errorf("state signature mismatch")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	var pending pendingAuthorization
	if err := json.Unmarshal(payload, &pending); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	if time.Now().Unix() > pending.ExpiresAt {
		return nil, fmt.Errorf("state expired")
	}

	return &pending, nil
}

func (controller *OAuthController) signState(encoded string) string {
	mac := hmac.New(sha256.New, []byte(controller.config.Secret))
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (controller *OAuthController) redirectError(c *gin.Context, redirectURI string, state string, errorCode string, errorDescription string) {
	redirectURL, err := url.Parse(redirectURI)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             errorCode,
			"error_description": errorDescription,
		})
		return
	}

	query := redirectURL.Query()
	query.Set("error", errorCode)
	query.Set("error_description", errorDescription)
	if state != "" {
		query.Set("state", state)
	}
	redirectURL.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, redirectURL.String())
}

func (controller *OAuthController) tokenError(c *gin.Context, errorCode string, errorDescription string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":             errorCode,
		"error_description": errorDescription,
	})
}

func supportedChallengeMethod(method string) bool {
	for _, supported := range config.SupportedCodeChallengeMethods {
		if method == supported {
			return true
		}
	}
	return false
}
