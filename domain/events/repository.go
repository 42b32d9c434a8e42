package events

import (
	"context"

	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=events

type EventRepository interface {
	RecordEvent(ctx context.Context, event *models.Event) error
}

type eventRepository struct {
	store storage.Acquirer
}

func NewEventRepository(store storage.Acquirer) EventRepository {
	return &eventRepository{store: store}
}

func (er *eventRepository) RecordEvent(ctx context.Context, event *models.Event) error {
	handle, err := er.store.Acquire(ctx)
	if err != nil {
		return err
	}

	if err := handle.Events().Insert(ctx, event); err != nil {
		return apperrors.NewDatabaseError("unable to record event", err)
	}

	return nil
}
