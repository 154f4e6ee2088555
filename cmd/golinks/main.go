package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"

	"github.com/undeadops/golinks/internal/api"
	"github.com/undeadops/golinks/internal/config"
	"github.com/undeadops/golinks/internal/db"
	"github.com/undeadops/golinks/internal/keys"
	"github.com/undeadops/golinks/internal/store"
)

const (
	appName = "golinks"
)

var (
	configPath string
	port       string
	debug      bool
	version    string
)

func main() {
	flag.StringVar(&configPath, "config", getEnv("GOLINKS_CONFIG", ""), "path to config file")
	flag.StringVar(&port, "port", getEnv("PORT", ""), "port to listen on (overrides config)")
	flag.BoolVar(&debug, "debug", getEnvBool("DEBUG", false), "Enable debug mode")

	// Parse flags
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logger := httplog.NewLogger(appName, httplog.Options{
		JSON:     true,
		Concise:  true,
		LogLevel: logLevel,
		Tags: map[string]string{
			"version": version,
			"app":     appName,
		},
	})

	logger.Info().Str("version", version).Msgf("Starting %s version %s", appName, version)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if port == "" {
		port = strconv.Itoa(cfg.Server.Port)
	}

	logger.Info().Str("type", cfg.Storage.Type).Msg("Setting up storage...")
	st, err := newStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer st.Close()

	keygen, err := keys.NewSnowflakeGenerator(cfg.Snowflake.MachineID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize key generator")
	}

	router := api.Router(ctx, st, keygen, logger)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	logger.Info().Msgf("Starting %s server on port %s", appName, port)
	// Run server in the background
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Err(err).Msg("Server error")
		}
	}()

	// Listen for the interrupt signal
	<-ctx.Done()

	// Create shutdown context with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Trigger graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Err(err).Msg("Shutdown error")
	}
	logger.Printf("Shutting down %s server", appName)
}

// newStore builds the storage backend selected in the configuration.
// Remote backends fall back to memory when they fail to initialize; the
// file backend never does, since serving lookups without the journal's
// contents would hand out wrong answers.
func newStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		st, err := store.NewPostgresStore(cfg.Storage.PostgresURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize PostgreSQL storage, falling back to memory")
			return store.NewMemoryStore(), nil
		}
		return st, nil
	case "redis":
		st, err := store.NewRedisStore(cfg.Storage.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Redis storage, falling back to memory")
			return store.NewMemoryStore(), nil
		}
		return st, nil
	case "dynamo":
		client := &db.Client{
			Region:      cfg.Storage.Dynamo.Region,
			Table:       cfg.Storage.Dynamo.Table,
			DDBEndpoint: cfg.Storage.Dynamo.Endpoint,
			Logger:      logger,
		}
		if err := db.Setup(ctx, client); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize DynamoDB storage, falling back to memory")
			return store.NewMemoryStore(), nil
		}
		return client, nil
	default:
		return store.NewFileStore(cfg.Storage.File.Path, cfg.Storage.File.Sync)
	}
}

// Helper functions to get environment variables with default values
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}

	return defaultVal
}
