package monitoring

import (
	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	storage StorageState
	logger  *log.Logger
}

func NewMonitoringControllerFactory(store StorageState, logger *log.Logger) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		storage: store,
		logger:  logger,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.storage, f.logger)
}
