package bootstrap

import (
	"fmt"

	"github.com/churchatlas/churchatlas/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type BootstrapApp struct {
	config   config.Config
	services Services
}

func NewBootstrapApp(config config.Config) *BootstrapApp {
	return &BootstrapApp{
		config: config,
	}
}

func (app *BootstrapApp) Setup() error {
	level, err := zerolog.ParseLevel(app.config.LogLevel)

	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	services, err := app.initServices()

	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	app.services = services

	engine, err := app.setupRouter()

	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	address := fmt.Sprintf("%s:%d", app.config.Address, app.config.Port)

	log.Info().Str("address", app.config.Address).Int("port", app.config.Port).Str("appUrl", app.config.AppURL).Msg("Starting server")

	return engine.Run(address)
}
