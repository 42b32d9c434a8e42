package domain

import (
	"github.com/akeren/rankly-signals/config"
	"github.com/akeren/rankly-signals/domain/analytics"
	"github.com/akeren/rankly-signals/domain/events"
	"github.com/akeren/rankly-signals/domain/monitoring"
	"github.com/akeren/rankly-signals/domain/waitlist"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	store := appConfig.Storage
	logger := appConfig.Logger

	// A nil config.SnapshotCache must stay a nil analytics.Cache.
	var metricsCache analytics.Cache
	if appConfig.SnapshotCache != nil {
		metricsCache = appConfig.SnapshotCache
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringControllerFactory(store, logger).CreateController())
	appConfig.RouterService.MountController(waitlist.NewWaitlistServiceFactory(store, logger).CreateController())
	appConfig.RouterService.MountController(events.NewEventServiceFactory(store, logger).CreateController())
	appConfig.RouterService.MountController(analytics.NewMetricsServiceFactory(store, logger, metricsCache, appConfig.SnapshotCacheConfig.TTL).CreateController())
}
