package storage

import (
	"context"

	"github.com/akeren/rankly-signals/internal/models"
	"gorm.io/gorm"
)

// Handle is a live connection plus the waitlist and events collections.
type Handle interface {
	Backend() Backend
	Waitlist() WaitlistCollection
	Events() EventCollection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type WaitlistCollection interface {
	// InsertIfAbsent stores entry unless one with the same EmailLower exists.
	// It reports true only when this call inserted.
	InsertIfAbsent(ctx context.Context, entry *models.WaitlistEntry) (bool, error)
	EstimatedCount(ctx context.Context) (int64, error)
}

type EventCollection interface {
	Insert(ctx context.Context, event *models.Event) error
	CountByType(ctx context.Context, eventType string) (int64, error)
}

// SQLHandle is implemented by the gorm-backed handles.
type SQLHandle interface {
	Handle
	DB() *gorm.DB
}

// Acquirer hands out the shared storage handle. *Provider implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (Handle, error)
}
