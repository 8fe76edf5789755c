// Package cli provides common CLI initialization utilities shared by
// cmd/yeargrid and cmd/yeargrid-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"

	"yeargrid/internal/amqp"
	"yeargrid/internal/config"
	"yeargrid/internal/log"
)

// dialAttempts bounds broker reconnects at startup.
const dialAttempts = 6

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from configuration and sets it as
// the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: component,
		Format:    cfg.LogFormat,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// SessionSecret returns the configured cookie signing key, or a random one
// when none is set. A random key invalidates every cookie on restart.
func SessionSecret(cfg *config.Config, logger *log.Logger) []byte {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret)
	}
	logger.Warn("SESSION_SECRET not set, using a random key; sessions will not survive restarts")
	return securecookie.GenerateRandomKey(config.MinSessionSecretLen)
}

// DialAMQP connects to the broker with retries.
func DialAMQP(ctx context.Context, cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	return amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, dialAttempts)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
