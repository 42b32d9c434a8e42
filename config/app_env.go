package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/pkg/utils"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey      = "APP_ENV"
	DotenvPathKey  = "DOTENV_PATH"
	defaultEnvFile = ".env"
)

// InitializeEnvFile loads DOTENV_PATH (default .env) unless SKIP_DOTENV=true. Variables already
// set in the process environment win over the file.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBoolOrDefault("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	path := utils.GetEnvTrimmedOrDefault(DotenvPathKey, defaultEnvFile)

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("No env file found", "path", path)
			return
		}
		logger.Warn("Failed to load env file", "path", path, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from env file", "path", path)
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

// ValidateAutoMigrateAllowed refuses --auto-migrate outside development-like environments.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
