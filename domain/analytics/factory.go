package analytics

import (
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
)

type MetricsServiceFactory interface {
	CreateService() MetricsService
	CreateController() *router.RESTController
}

type DefaultMetricsServiceFactory struct {
	store    storage.Acquirer
	logger   *log.Logger
	cache    Cache
	cacheTTL time.Duration
}

// NewMetricsServiceFactory accepts a nil cache.
func NewMetricsServiceFactory(store storage.Acquirer, logger *log.Logger, cache Cache, cacheTTL time.Duration) MetricsServiceFactory {
	return &DefaultMetricsServiceFactory{
		store:    store,
		logger:   logger,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (f *DefaultMetricsServiceFactory) CreateService() MetricsService {
	return NewMetricsService(f.logger, NewMetricsRepository(f.store), f.cache, f.cacheTTL)
}

func (f *DefaultMetricsServiceFactory) CreateController() *router.RESTController {
	return NewMetricsController(f.store, f.logger, f.cache, f.cacheTTL)
}
