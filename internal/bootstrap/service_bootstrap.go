package bootstrap

import (
	"github.com/churchatlas/churchatlas/internal/service"

	"github.com/rs/zerolog/log"
)

type Services struct {
	databaseService  *service.DatabaseService
	tokenService     *service.TokenService
	sessionService   *service.SessionService
	directoryService *service.DirectoryService
	authEventService *service.AuthEventService
}

func (app *BootstrapApp) initServices() (Services, error) {
	services := Services{}

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: app.config.DatabasePath,
	})

	err := databaseService.Init()

	if err != nil {
		return Services{}, err
	}

	services.databaseService = databaseService

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		AccessTokenExpiry: app.config.AccessTokenExpiry,
		AuthCodeExpiry:    app.config.AuthCodeExpiry,
		Database:          databaseService.GetDatabase(),
	})

	err = tokenService.Init()

	if err != nil {
		return Services{}, err
	}

	services.tokenService = tokenService

	sessionService := service.NewSessionService(service.SessionServiceConfig{
		CookieName: app.config.SessionCookieName,
		Database:   databaseService.GetDatabase(),
	})

	err = sessionService.Init()

	if err != nil {
		return Services{}, err
	}

	services.sessionService = sessionService

	directoryService := service.NewDirectoryService(service.DirectoryServiceConfig{
		Database: databaseService.GetDatabase(),
	})

	err = directoryService.Init()

	if err != nil {
		return Services{}, err
	}

	services.directoryService = directoryService

	authEventService := service.NewAuthEventService(service.AuthEventServiceConfig{
		Database: databaseService.GetDatabase(),
	})

	err = authEventService.Init()

	if err != nil {
		return Services{}, err
	}

	services.authEventService = authEventService

	// Opportunistic cleanup of expired codes and tokens; expiry is
	// still enforced at the point of use.
	if err := tokenService.Sweep(); err != nil {
		log.Warn().Err(err).Msg("Failed to sweep expired credentials")
	}

	return services, nil
}
