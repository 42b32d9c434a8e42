package waitlist

import (
	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

type WaitlistServiceFactory interface {
	CreateService(reg prometheus.Registerer) WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	store  storage.Acquirer
	logger *log.Logger
}

func NewWaitlistServiceFactory(store storage.Acquirer, logger *log.Logger) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		store:  store,
		logger: logger,
	}
}

func (f *DefaultWaitlistServiceFactory) CreateService(reg prometheus.Registerer) WaitlistService {
	repository := NewWaitlistRepository(f.store)
	return NewWaitlistService(f.logger, repository, reg)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.store, f.logger)
}
