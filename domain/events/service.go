package events

import (
	"context"
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/akeren/rankly-signals/domain/events")

type EventService interface {
	// Record appends one event. requestPath is used when the request names no path.
	Record(ctx context.Context, req *RecordEventRequest, requestPath string, meta models.ClientMetadata) error
}

type eventService struct {
	logger     *log.Logger
	repository EventRepository
	recorded   prometheus.Counter
	now        func() time.Time
}

func NewEventService(logger *log.Logger, repository EventRepository, reg prometheus.Registerer) EventService {
	recorded := router.RegisterCollector(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_recorded_total",
		Help: "Funnel events appended to storage.",
	}))

	return &eventService{
		logger:     logger,
		repository: repository,
		recorded:   recorded,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *eventService) Record(ctx context.Context, req *RecordEventRequest, requestPath string, meta models.ClientMetadata) error {
	ctx, span := tracer.Start(ctx, "events.record")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	event := ToEventModel(req, requestPath, s.now(), meta)
	span.SetAttributes(attribute.String("event.type", event.Type))

	if err := s.repository.RecordEvent(ctx, event); err != nil {
		logger.Error("Failed to record event", "type", event.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		return err
	}

	s.recorded.Inc()
	logger.Debug("Event recorded", "type", event.Type, "path", event.Path)

	return nil
}
