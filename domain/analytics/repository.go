package analytics

import (
	"context"

	"github.com/akeren/rankly-signals/internal/storage"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=analytics

type MetricsRepository interface {
	// CountEventsByType is exact.
	CountEventsByType(ctx context.Context, eventType string) (int64, error)
	// EstimateWaitlistSize may lag concurrent writes on backends that keep collection metadata.
	EstimateWaitlistSize(ctx context.Context) (int64, error)
}

type metricsRepository struct {
	store storage.Acquirer
}

func NewMetricsRepository(store storage.Acquirer) MetricsRepository {
	return &metricsRepository{store: store}
}

func (mr *metricsRepository) CountEventsByType(ctx context.Context, eventType string) (int64, error) {
	handle, err := mr.store.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	count, err := handle.Events().CountByType(ctx, eventType)
	if err != nil {
		return 0, apperrors.NewDatabaseError("unable to count events", err)
	}

	return count, nil
}

func (mr *metricsRepository) EstimateWaitlistSize(ctx context.Context) (int64, error) {
	handle, err := mr.store.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	count, err := handle.Waitlist().EstimatedCount(ctx)
	if err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	return count, nil
}
