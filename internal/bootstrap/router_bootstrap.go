package bootstrap

import (
	"fmt"
	"strings"

	"github.com/churchatlas/churchatlas/internal/config"
	"github.com/churchatlas/churchatlas/internal/controller"
	"github.com/churchatlas/churchatlas/internal/mcp"
	"github.com/churchatlas/churchatlas/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (app *BootstrapApp) setupRouter() (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(app.config.TrustedProxies) > 0 {
		err := engine.SetTrustedProxies(strings.Split(app.config.TrustedProxies, ","))

		if err != nil {
			return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
		}
	}

	contextMiddleware := middleware.NewContextMiddleware(app.services.tokenService)

	err := contextMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize context middleware: %w", err)
	}

	engine.Use(contextMiddleware.Middleware())

	zerologMiddleware := middleware.NewZerologMiddleware()

	err = zerologMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize zerolog middleware: %w", err)
	}

	engine.Use(zerologMiddleware.Middleware())

	dispatcher := mcp.NewDispatcher(mcp.DispatcherConfig{
		ServerName:    "churchatlas",
		ServerVersion: config.Version,
	}, app.services.directoryService)

	rootGroup := &engine.RouterGroup
	apiRouter := engine.Group("/api")

	mcpController := controller.NewMcpController(controller.McpControllerConfig{}, rootGroup, dispatcher)

	mcpController.SetupRoutes()

	oauthController := controller.NewOAuthController(controller.OAuthControllerConfig{
		AppURL:   app.config.AppURL,
		LoginURL: app.config.LoginURL,
		Secret:   app.config.Secret,
	}, rootGroup, app.services.tokenService, app.services.sessionService, app.services.authEventService)

	oauthController.SetupRoutes()

	wellKnownController := controller.NewWellKnownController(controller.WellKnownControllerConfig{
		AppURL: app.config.AppURL,
	}, engine)

	wellKnownController.SetupRoutes()

	eventsController := controller.NewEventsController(controller.EventsControllerConfig{}, apiRouter, app.services.authEventService)

	eventsController.SetupRoutes()

	healthController := controller.NewHealthController(apiRouter)

	healthController.SetupRoutes()

	return engine, nil
}
