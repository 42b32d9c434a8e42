package waitlist

import (
	"context"
	"time"

	"github.com/akeren/rankly-signals/config/router"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const invalidEmailMessage = "Invalid email."

var tracer = otel.Tracer("github.com/akeren/rankly-signals/domain/waitlist")

type WaitlistService interface {
	// Join validates and normalizes the email, then registers it at most once.
	Join(ctx context.Context, req *JoinWaitlistRequest, meta models.ClientMetadata) (*JoinWaitlistResponse, error)
}

type waitlistService struct {
	logger        *log.Logger
	repository    WaitlistRepository
	registrations *prometheus.CounterVec
	now           func() time.Time
}

// NewWaitlistService registers its counters on reg. reg may be nil.
func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, reg prometheus.Registerer) WaitlistService {
	registrations := router.RegisterCollector(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_registrations_total",
			Help: "Waitlist submissions accepted, by outcome.",
		},
		[]string{"outcome"},
	))

	return &waitlistService{
		logger:        logger,
		repository:    repository,
		registrations: registrations,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *waitlistService) Join(ctx context.Context, req *JoinWaitlistRequest, meta models.ClientMetadata) (*JoinWaitlistResponse, error) {
	ctx, span := tracer.Start(ctx, "waitlist.join")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError(invalidEmailMessage, nil)
	}

	email, emailLower := NormalizeEmail(req.Email)

	if err := validateEmail(email); err != nil {
		logger.Info("Rejected waitlist submission", "reason", "invalid_email")
		span.SetStatus(codes.Error, "invalid email")
		return nil, apperrors.NewInvalidRequestError(invalidEmailMessage, err)
	}

	entry := ToWaitlistEntryModel(email, emailLower, s.now(), meta)

	created, err := s.repository.RegisterEntry(ctx, entry)
	if err != nil {
		logger.Error("Failed to register waitlist entry", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "register failed")
		return nil, err
	}

	outcome := "existing"
	if created {
		outcome = "created"
	}
	s.registrations.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.Bool("waitlist.created", created), attribute.String("waitlist.source", entry.Source))

	logger.Info("Waitlist submission processed", "created", created, "source", entry.Source)

	return ToJoinWaitlistResponse(created), nil
}
