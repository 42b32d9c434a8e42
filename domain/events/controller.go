package events

import (
	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
)

func NewEventController(
	store storage.Acquirer,
	logger *log.Logger,
) *router.RESTController {

	return router.NewRESTController(
		"EventController",
		"/track",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewEventRepository(store)
			service := NewEventService(logger, repository, rs.Registerer())

			rs.AddPostHandler(c, "", recordEventHandler(service))
		},
	)
}

func recordEventHandler(service EventService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req RecordEventRequest

		if result := router.BindJSON(ctx, &req); result != nil {
			return result
		}

		meta := models.NewClientMetadata(ctx.Request.UserAgent(), ctx.Request.Referer(), models.SourceAPI)

		if err := service.Record(ctx.Request.Context(), &req, ctx.Request.URL.Path, meta); err != nil {
			return router.ResultFromError(ctx, err)
		}

		return router.OKResult(nil, "Event recorded")
	}
}
