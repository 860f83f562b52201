// Command campobot runs the Campo Inteligente chatbot backend: the web-chat
// endpoint, the Evolution webhook, and the conversation engine behind them.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/campointeligente/chatbot/internal/api"
	"github.com/campointeligente/chatbot/internal/messaging"
	"github.com/campointeligente/chatbot/internal/openweather"
	"github.com/campointeligente/chatbot/internal/store"
	"github.com/campointeligente/chatbot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for chatbot state data.
	DefaultStateDir = "/var/lib/campobot"
	// DefaultDBFileName is the default SQLite database filename.
	DefaultDBFileName = "campobot.db"
)

// Config holds environment configuration.
type Config struct {
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	StateDir          string `envconfig:"STATE_DIR"`
	APIAddr           string `envconfig:"API_ADDR"`
	EvolutionURL      string `envconfig:"EVOLUTION_API_URL"`
	EvolutionInstance string `envconfig:"EVOLUTION_INSTANCE_NAME"`
	EvolutionAPIKey   string `envconfig:"EVOLUTION_API_KEY"`
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY"`
}

func main() {
	initializeLogger()

	config, err := loadEnvironmentConfig()
	if err != nil {
		slog.Error("Failed to load environment configuration", "error", err)
		os.Exit(1)
	}

	flags := parseCommandLineFlags(config)

	slog.Info("Bootstrapping campobot with configured modules")
	slog.Debug("Final configuration",
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"evolution_url_set", *flags.evolutionURL != "",
		"openweather_key_set", *flags.openWeatherKey != "")

	storeOpts := buildStoreOptions(flags)
	owOpts := buildOpenWeatherOptions(flags)
	msgOpts := buildMessagingOptions(flags)
	apiOpts := buildAPIOptions(flags)

	if err := api.Run(storeOpts, owOpts, msgOpts, apiOpts); err != nil {
		slog.Error("campobot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("campobot exited successfully")
}

// Flags holds command line flag values.
type Flags struct {
	dbDSN             *string
	apiAddr           *string
	evolutionURL      *string
	evolutionInstance *string
	evolutionAPIKey   *string
	openWeatherKey    *string
}

// initializeLogger sets up structured logging. CAMPOBOT_DEBUG enables debug level.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("CAMPOBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from a .env file and environment variables.
func loadEnvironmentConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// With no database URL, default to SQLite in the state directory.
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"EVOLUTION_API_URL_SET", config.EvolutionURL != "",
		"EVOLUTION_INSTANCE_NAME", config.EvolutionInstance,
		"EVOLUTION_API_KEY_SET", config.EvolutionAPIKey != "",
		"OPENWEATHER_API_KEY_SET", config.OpenWeatherAPIKey != "")

	return config, nil
}

// parseCommandLineFlags parses command line arguments with environment defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDSN:             flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		apiAddr:           flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		evolutionURL:      flag.String("evolution-url", config.EvolutionURL, "Evolution API base URL (overrides $EVOLUTION_API_URL)"),
		evolutionInstance: flag.String("evolution-instance", config.EvolutionInstance, "Evolution instance name (overrides $EVOLUTION_INSTANCE_NAME)"),
		evolutionAPIKey:   flag.String("evolution-api-key", config.EvolutionAPIKey, "Evolution API key (overrides $EVOLUTION_API_KEY)"),
		openWeatherKey:    flag.String("openweather-api-key", config.OpenWeatherAPIKey, "OpenWeatherMap API key (overrides $OPENWEATHER_API_KEY)"),
	}
	flag.Parse()
	return flags
}

// buildStoreOptions constructs store configuration options.
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	}
	return storeOpts
}

// buildOpenWeatherOptions constructs OpenWeatherMap client options.
func buildOpenWeatherOptions(flags Flags) []openweather.Option {
	var owOpts []openweather.Option
	if *flags.openWeatherKey != "" {
		owOpts = append(owOpts, openweather.WithAPIKey(*flags.openWeatherKey))
	}
	return owOpts
}

// buildMessagingOptions constructs Evolution sender options.
func buildMessagingOptions(flags Flags) []messaging.Option {
	var msgOpts []messaging.Option
	if *flags.evolutionURL != "" {
		msgOpts = append(msgOpts, messaging.WithBaseURL(*flags.evolutionURL))
	}
	if *flags.evolutionInstance != "" {
		msgOpts = append(msgOpts, messaging.WithInstance(*flags.evolutionInstance))
	}
	if *flags.evolutionAPIKey != "" {
		msgOpts = append(msgOpts, messaging.WithAPIKey(*flags.evolutionAPIKey))
	}
	return msgOpts
}

// buildAPIOptions constructs API server configuration options.
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
