package waitlist

import (
	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
)

func NewWaitlistController(
	store storage.Acquirer,
	logger *log.Logger,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(store)
			service := NewWaitlistService(logger, repository, rs.Registerer())

			rs.AddPostHandler(c, "", joinWaitlistHandler(service))
		},
	)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		var req JoinWaitlistRequest

		if result := router.BindJSON(ctx, &req); result != nil {
			return result
		}

		meta := models.NewClientMetadata(ctx.Request.UserAgent(), ctx.Request.Referer(), models.SourceAPI)

		response, err := service.Join(ctx.Request.Context(), &req, meta)
		if err != nil {
			return router.ResultFromError(ctx, err)
		}

		return router.OKResult(router.Payload{"alreadyOnList": response.AlreadyOnList}, "Waitlist submission accepted")
	}
}
