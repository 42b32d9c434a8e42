package config

import (
	"context"
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/akeren/rankly-signals/pkg/constants"
	"github.com/akeren/rankly-signals/pkg/utils"
)

type ApplicationConfig struct {
	Storage         *storage.Provider
	RouterService   *router.RouterService
	Logger          *log.Logger
	Config          *AppConfig
	TracingShutdown func(context.Context) error

	SnapshotCacheConfig *SnapshotCacheConfig
	// SnapshotCache is nil when the metrics snapshot cache is disabled or unreachable.
	SnapshotCache SnapshotCache
}

type AppConfig struct {
	RequestTimeout time.Duration
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RequestTimeout: utils.GetEnvDurationOrDefault("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.Storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = ac.Storage.Close(ctx)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.SnapshotCache != nil {
		_ = CloseSnapshotCache(ac.SnapshotCache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

// NewStorageProvider builds the lazily connecting provider. No I/O happens until the first Acquire.
func NewStorageProvider(logger *log.Logger, ensureSchema bool) *storage.Provider {
	return storage.NewProvider(logger, StorageConfigLoader(logger, ensureSchema))
}

// LoadApplicationConfiguration wires the process. With autoMigrate the storage schema is
// ensured on connect, which is refused outside development environments.
func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	appConfig := NewAppConfig()

	snapshotCacheConfig := NewSnapshotCacheConfig()
	snapshotCache := snapshotCacheConfig.ConnectOrNil(logger)

	routerService := router.CreateRouterService(logger, &router.RouterConfig{
		RequestTimeout: appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		Storage:         NewStorageProvider(logger, autoMigrate),
		RouterService:   routerService,
		Logger:          logger,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,

		SnapshotCacheConfig: snapshotCacheConfig,
		SnapshotCache:       snapshotCache,
	}, nil
}
