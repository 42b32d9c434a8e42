package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const snapshotCacheKey = "metrics:v1"

var tracer = otel.Tracer("github.com/akeren/rankly-signals/domain/analytics")

// Cache is the subset of the application cache the snapshot reader needs.
type Cache interface {
	// Get returns ("", nil) on a miss.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type MetricsService interface {
	Snapshot(ctx context.Context) (*MetricsSnapshot, error)
}

type metricsService struct {
	logger     *log.Logger
	repository MetricsRepository
	cache      Cache
	ttl        time.Duration
}

// NewMetricsService reads through cache when cache is non-nil and ttl is positive.
func NewMetricsService(logger *log.Logger, repository MetricsRepository, cache Cache, ttl time.Duration) MetricsService {
	if ttl <= 0 {
		cache = nil
	}

	return &metricsService{
		logger:     logger,
		repository: repository,
		cache:      cache,
		ttl:        ttl,
	}
}

func (s *metricsService) Snapshot(ctx context.Context) (*MetricsSnapshot, error) {
	ctx, span := tracer.Start(ctx, "analytics.snapshot")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if cached, ok := s.readCache(ctx, logger); ok {
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	snapshot, err := s.count(ctx)
	if err != nil {
		logger.Error("Failed to compute metrics snapshot", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, err
	}

	s.writeCache(ctx, logger, snapshot)

	return snapshot, nil
}

func (s *metricsService) count(ctx context.Context) (*MetricsSnapshot, error) {
	var snapshot MetricsSnapshot

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repository.CountEventsByType(gctx, models.EventTypePageview)
		snapshot.Pageviews = n
		return err
	})

	g.Go(func() error {
		n, err := s.repository.CountEventsByType(gctx, models.EventTypeWaitlistJoin)
		snapshot.WaitlistJoins = n
		return err
	})

	g.Go(func() error {
		n, err := s.repository.EstimateWaitlistSize(gctx)
		snapshot.UniqueEmails = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

func (s *metricsService) readCache(ctx context.Context, logger *log.Logger) (*MetricsSnapshot, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, snapshotCacheKey)
	if err != nil {
		logger.Warn("Metrics cache read failed; reading from storage", "error", err)
		return nil, false
	}
	if raw == "" {
		return nil, false
	}

	var snapshot MetricsSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		logger.Warn("Discarding unreadable metrics cache entry", "error", err)
		return nil, false
	}

	return &snapshot, true
}

func (s *metricsService) writeCache(ctx context.Context, logger *log.Logger, snapshot *MetricsSnapshot) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(snapshot)
	if err != nil {
		logger.Warn("Failed to encode metrics snapshot for cache", "error", err)
		return
	}

	if err := s.cache.Set(ctx, snapshotCacheKey, string(raw), s.ttl); err != nil {
		logger.Warn("Metrics cache write failed", "error", err)
	}
}
