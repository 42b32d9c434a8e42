package events

import (
	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

type EventServiceFactory interface {
	CreateService(reg prometheus.Registerer) EventService
	CreateController() *router.RESTController
}

type DefaultEventServiceFactory struct {
	store  storage.Acquirer
	logger *log.Logger
}

func NewEventServiceFactory(store storage.Acquirer, logger *log.Logger) EventServiceFactory {
	return &DefaultEventServiceFactory{
		store:  store,
		logger: logger,
	}
}

func (f *DefaultEventServiceFactory) CreateService(reg prometheus.Registerer) EventService {
	return NewEventService(f.logger, NewEventRepository(f.store), reg)
}

func (f *DefaultEventServiceFactory) CreateController() *router.RESTController {
	return NewEventController(f.store, f.logger)
}
