package monitoring

import (
	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// StorageState reports the provider's connection state without triggering a connection.
type StorageState interface {
	State() storage.State
}

type MonitoringController struct {
	storage StorageState
	logger  *log.Logger
}

func NewMonitoringController(store StorageState, logger *log.Logger) *router.RESTController {
	ctrl := &MonitoringController{
		storage: store,
		logger:  logger,
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			router.RegisterCollector(routerService.Registerer(), prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "storage_ready",
					Help: "1 when the storage handle is connected, 0 otherwise.",
				},
				func() float64 {
					if ctrl.storage.State().Ready() {
						return 1
					}
					return 0
				},
			))

			routerService.AddGetHandler(controller, "", ctrl.root)
			routerService.AddGetHandler(controller, "health", ctrl.health)
			routerService.AddHeadHandler(controller, "health", ctrl.health)
		},
	)
}

func (ctrl *MonitoringController) root(c *router.RequestContext) *router.ServiceResult {
	return router.OKResult(router.Payload{"message": "API is running"}, "API is running")
}

// health never touches storage: it reports the state of the last connection attempt.
func (ctrl *MonitoringController) health(c *router.RequestContext) *router.ServiceResult {
	state := ctrl.storage.State()

	logger := ctrl.logger.WithCorrelationID(c.Request.Context())
	logger.Debug("Health check", "storage_state", state.Status)

	return router.OKResult(router.Payload{
		"storageReady": state.Ready(),
		"storageState": string(state.Status),
	}, "Health check completed")
}
