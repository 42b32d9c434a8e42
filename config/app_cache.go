package config

import (
	"context"
	"os"
	"time"

	"github.com/akeren/rankly-signals/internal/log"
	pkgredis "github.com/akeren/rankly-signals/pkg/redis"
	"github.com/akeren/rankly-signals/pkg/utils"
)

// SnapshotCache holds serialized metrics snapshots between requests.
type SnapshotCache interface {
	// Get returns ("", nil) when a key is not found.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Close() error
}

// SnapshotCacheConfig enables the Redis-backed metrics snapshot cache only when both a
// host and a positive TTL are set.
type SnapshotCacheConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

func NewSnapshotCacheConfig() *SnapshotCacheConfig {
	return &SnapshotCacheConfig{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     utils.GetEnvOrDefault("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		TTL:      utils.GetEnvDurationOrDefault("METRICS_CACHE_TTL", 0),
	}
}

func (sc *SnapshotCacheConfig) Enabled() bool {
	return sc.Host != "" && sc.TTL > 0
}

func (sc *SnapshotCacheConfig) Connect(logger *log.Logger) (SnapshotCache, error) {
	switch {
	case sc.TTL <= 0:
		return nil, ErrSnapshotCacheDisabled
	case sc.Host == "":
		return nil, ErrSnapshotCacheNoHost
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     sc.Host,
		Port:     sc.Port,
		Password: sc.Password,
	})
	if err != nil {
		logger.Error("Failed to connect metrics snapshot cache", "error", err)
		return nil, err
	}

	logger.Info("Metrics snapshot cache connected", "ttl", sc.TTL.String())
	return cache, nil
}

// ConnectOrNil never fails: without a cache every metrics read aggregates from storage.
func (sc *SnapshotCacheConfig) ConnectOrNil(logger *log.Logger) SnapshotCache {
	if !sc.Enabled() {
		logger.Info("Metrics snapshot cache disabled",
			"redis_host_set", sc.Host != "",
			"ttl", sc.TTL.String(),
		)
		return nil
	}

	cache, err := sc.Connect(logger)
	if err != nil {
		logger.Warn("Serving metrics without snapshot cache", "error", err)
		return nil
	}

	return cache
}

func CloseSnapshotCache(cache SnapshotCache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close metrics snapshot cache", "error", err)
		return err
	}

	logger.Info("Metrics snapshot cache closed")
	return nil
}

var (
	ErrSnapshotCacheDisabled = &SnapshotCacheError{Message: "METRICS_CACHE_TTL is not positive"}
	ErrSnapshotCacheNoHost   = &SnapshotCacheError{Message: "REDIS_HOST is not set"}
)

type SnapshotCacheError struct {
	Message string
}

func (e *SnapshotCacheError) Error() string {
	return "metrics snapshot cache: " + e.Message
}
