package analytics

import (
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/storage"
)

func NewMetricsController(
	store storage.Acquirer,
	logger *log.Logger,
	cache Cache,
	cacheTTL time.Duration,
) *router.RESTController {

	return router.NewRESTController(
		"MetricsController",
		"/metrics",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewMetricsService(logger, NewMetricsRepository(store), cache, cacheTTL)

			rs.AddGetHandler(c, "", snapshotHandler(service))
		},
	)
}

func snapshotHandler(service MetricsService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		snapshot, err := service.Snapshot(ctx.Request.Context())
		if err != nil {
			return router.ResultFromError(ctx, err)
		}

		return router.OKResult(snapshot.ToPayload(), "Metrics snapshot")
	}
}
