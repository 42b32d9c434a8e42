package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/akeren/rankly-signals/pkg/constants"
	"github.com/akeren/rankly-signals/pkg/utils"
)

// StorageConfigLoader returns the loader handed to storage.NewProvider. forceSchema turns
// schema ensuring on regardless of STORAGE_ENSURE_SCHEMA.
func StorageConfigLoader(logger *log.Logger, forceSchema bool) func() (storage.Config, error) {
	return func() (storage.Config, error) {
		cfg, err := LoadStorageConfig(logger)
		if err != nil {
			return storage.Config{}, err
		}
		if forceSchema {
			cfg.EnsureSchema = true
		}
		return cfg, nil
	}
}

// LoadStorageConfig resolves the connection target from STORAGE_URI, then MONGODB_URI,
// then the POSTGRES_* variables. An empty Target means storage is not configured.
func LoadStorageConfig(logger *log.Logger) (storage.Config, error) {
	cfg := storage.Config{
		DatabaseName:    sanitizeEnv(utils.FirstEnvTrimmed("STORAGE_DB_NAME", "MONGODB_DB")),
		EnsureSchema:    utils.GetEnvBoolOrDefault("STORAGE_ENSURE_SCHEMA", false),
		ConnectAttempts: utils.GetEnvPositiveIntOrDefault("STORAGE_CONNECT_ATTEMPTS", constants.DefaultStorageConnectAttempts),
	}

	if cfg.DatabaseName == "" {
		cfg.DatabaseName = constants.DefaultDatabaseName
	}

	if target := sanitizeEnv(utils.FirstEnvTrimmed("STORAGE_URI", "MONGODB_URI")); target != "" {
		cfg.Target = target
		return cfg, nil
	}

	target, err := buildPostgresURLFromEnv(logger)
	if err != nil {
		return storage.Config{}, err
	}

	cfg.Target = target
	return cfg, nil
}

func buildPostgresURLFromEnv(logger *log.Logger) (string, error) {
	host, port, user, pass, dbName, ssl := getDatabaseEnvParams()

	if host == "" && user == "" && dbName == "" {
		return "", nil
	}

	if ssl == "" {
		ssl = "require"
	}

	missing := []string{}

	if host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}

	if port == "" {
		port = "5432"
	}

	if user == "" {
		missing = append(missing, "POSTGRES_USER")
	}

	if dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}

	if len(missing) > 0 {
		logger.Error("Missing required database environment variables", "missing_vars", strings.Join(missing, ", "))
		return "", fmt.Errorf("%w: missing required database env vars: %s", storage.ErrInvalidTarget, strings.Join(missing, ", "))
	}

	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": []string{ssl}}.Encode(),
	}

	logger.Info("Using POSTGRES_* variables for storage",
		"host", host,
		"port", port,
		"user", user,
		"dbname", dbName,
		"sslmode", ssl,
	)

	return u.String(), nil
}

func getDatabaseEnvParams() (host, port, user, pass, dbName, ssl string) {
	host = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", ""))
	port = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PORT", ""))
	user = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_USER", ""))
	pass = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PASSWORD", ""))
	dbName = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_DB_NAME", ""))
	ssl = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_SSLMODE", ""))

	return host, port, user, pass, dbName, ssl
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}
