package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"firestore-utils/internal/maintenance/config"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Bootstrap loads .env, builds the stderr logger and loads the configuration.
// The logger is returned even when the configuration is invalid.
func Bootstrap(stderr io.Writer) (*config.Config, logger.Logger, error) {
	envErr := godotenv.Load()
	log := logger.NewLoggerWithWriter(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), stderr)
	switch {
	case envErr == nil:
	case errors.Is(envErr, os.ErrNotExist):
		log.Debug("No .env file found, using the process environment")
	default:
		log.Warn("Could not load .env file", zap.Error(envErr))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, log, apperrors.NewConfigurationError("invalid configuration").WithCause(err)
	}
	return cfg, log, nil
}

// Exit reports err on stderr and returns the process exit status. A refusal
// has already been explained to the operator and is not repeated.
func Exit(stderr io.Writer, err error) int {
	if err != nil && !apperrors.IsRefused(err) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return apperrors.ExitCodeFor(err)
}
