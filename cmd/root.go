package cmd

import (
	"github.com/churchatlas/churchatlas/internal/bootstrap"
	"github.com/churchatlas/churchatlas/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "churchatlas",
	Short: "Agent gateway for the church directory.",
	Long:  `Churchatlas exposes the church directory to automation agents over a JSON-RPC endpoint, with a self-hosted OAuth authorization-code + PKCE server issuing the bearer tokens.`,
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Msg("Parsing config")
		var cfg config.Config
		parseErr := viper.Unmarshal(&cfg)
		HandleError(parseErr, "Failed to parse config")

		log.Info().Msg("Validating config")
		validate := validator.New()
		validateErr := validate.Struct(cfg)
		HandleError(validateErr, "Invalid config")

		app := bootstrap.NewBootstrapApp(cfg)
		HandleError(app.Setup(), "Failed to run server")
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}

func HandleError(err error, msg string) {
	if err != nil {
		log.Fatal().Err(err).Msg(msg)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	viper.AutomaticEnv()
	rootCmd.Flags().Int("port", 3000, "Port to run the server on.")
	rootCmd.Flags().String("address", "0.0.0.0", "Address to bind the server to.")
	rootCmd.Flags().String("app-url", "", "Public URL of this server.")
	rootCmd.Flags().String("login-url", "", "URL of the external human login page.")
	rootCmd.Flags().String("secret", "", "Secret used to sign the OAuth state blob, at least 32 characters.")
	rootCmd.Flags().String("database-path", "data/churchatlas.db", "Path to the sqlite database.")
	rootCmd.Flags().String("log-level", "info", "Log level.")
	rootCmd.Flags().Int("access-token-expiry", 3600, "Access token lifetime in seconds.")
	rootCmd.Flags().Int("auth-code-expiry", 600, "Authorization code lifetime in seconds.")
	rootCmd.Flags().String("session-cookie-name", "churchatlas-session", "Name of the session cookie the login collaborator sets.")
	rootCmd.Flags().String("trusted-proxies", "", "Comma separated list of trusted proxies.")
	viper.BindEnv("port", "PORT")
	viper.BindEnv("address", "ADDRESS")
	viper.BindEnv("app-url", "APP_URL")
	viper.BindEnv("login-url", "LOGIN_URL")
	viper.BindEnv("secret", "SECRET")
	viper.BindEnv("database-path", "DATABASE_PATH")
	viper.BindEnv("log-level", "LOG_LEVEL")
	viper.BindEnv("access-token-expiry", "ACCESS_TOKEN_EXPIRY")
	viper.BindEnv("auth-code-expiry", "AUTH_CODE_EXPIRY")
	viper.BindEnv("session-cookie-name", "SESSION_COOKIE_NAME")
	viper.BindEnv("trusted-proxies", "TRUSTED_PROXIES")
	viper.BindPFlags(rootCmd.Flags())
}
