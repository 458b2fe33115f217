package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/churchatlas/churchatlas/internal/config"

	"github.com/gin-gonic/gin"
)

// RFC 8414 authorization server metadata.
type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
}

// RFC 9728 protected resource metadata.
type ProtectedResourceMetadata struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

type WellKnownControllerConfig struct {
	AppURL string
}

type WellKnownController struct {
	config WellKnownControllerConfig
	engine *gin.Engine
}

func NewWellKnownController(config WellKnownControllerConfig, engine *gin.Engine) *WellKnownController {
	return &WellKnownController{
		config: config,
		engine: engine,
	}
}

func (controller *WellKnownController) SetupRoutes() {
	controller.engine.GET("/.well-known/oauth-authorization-server", controller.authorizationServerHandler)
	controller.engine.GET("/.well-known/oauth-protected-resource", controller.protectedResourceHandler)
}

func (controller *WellKnownController) baseURL() string {
	return strings.TrimSuffix(controller.config.AppURL, "/")
}

func (controller *WellKnownController) authorizationServerHandler(c *gin.Context) {
	baseURL := controller.baseURL()

	c.JSON(http.StatusOK, AuthorizationServerMetadata{
		Issuer:                            baseURL,
		AuthorizationEndpoint:             fmt.Sprintf("%s/oauth/authorize", baseURL),
		TokenEndpoint:                     fmt.Sprintf("%s/oauth/token", baseURL),
		ResponseTypesSupported:            []string{config.SupportedResponseType},
		GrantTypesSupported:               []string{config.SupportedGrantType},
		CodeChallengeMethodsSupported:     config.SupportedCodeChallengeMethods,
		TokenEndpointAuthMethodsSupported: []string{"none"},
		ScopesSupported:                   []string{config.DefaultScope},
	})
}

func (controller *WellKnownController) protectedResourceHandler(c *gin.Context) {
	baseURL := controller.baseURL()

	c.JSON(http.StatusOK, ProtectedResourceMetadata{
		Resource:               fmt.Sprintf("%s/mcp", baseURL),
		AuthorizationServers:   []string{baseURL},
		BearerMethodsSupported: []string{"header"},
	})
}
