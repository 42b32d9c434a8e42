package waitlist

import (
	"context"

	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// RegisterEntry inserts entry unless one with the same normalized email exists.
	// It reports true only when this call created the entry.
	RegisterEntry(ctx context.Context, entry *models.WaitlistEntry) (bool, error)
}

type waitlistRepository struct {
	store storage.Acquirer
}

func NewWaitlistRepository(store storage.Acquirer) WaitlistRepository {
	return &waitlistRepository{store: store}
}

func (wr *waitlistRepository) RegisterEntry(ctx context.Context, entry *models.WaitlistEntry) (bool, error) {
	handle, err := wr.store.Acquire(ctx)
	if err != nil {
		return false, err
	}

	created, err := handle.Waitlist().InsertIfAbsent(ctx, entry)
	if err != nil {
		return false, apperrors.NewDatabaseError("unable to register waitlist entry", err)
	}

	return created, nil
}
