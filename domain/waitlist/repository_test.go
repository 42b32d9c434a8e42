package waitlist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
	apperrors "github.com/akeren/rankly-signals/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteProvider(t *testing.T) *storage.Provider {
	t.Helper()

	target := "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared"
	p := storage.NewProvider(testLogger(), func() (storage.Config, error) {
		return storage.Config{Target: target, ConnectAttempts: 1}, nil
	})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	return p
}

func TestWaitlistRegistration_IdempotentAcrossCase(t *testing.T) {
	service := NewWaitlistService(testLogger(), NewWaitlistRepository(newSQLiteProvider(t)), nil)
	ctx := context.Background()

	first, err := service.Join(ctx, &JoinWaitlistRequest{Email: "Ada@Example.com"}, models.ClientMetadata{})
	require.NoError(t, err)
	assert.False(t, first.AlreadyOnList)

	second, err := service.Join(ctx, &JoinWaitlistRequest{Email: "ada@example.com"}, models.ClientMetadata{})
	require.NoError(t, err)
	assert.True(t, second.AlreadyOnList)

	third, err := service.Join(ctx, &JoinWaitlistRequest{Email: " ADA@EXAMPLE.COM "}, models.ClientMetadata{})
	require.NoError(t, err)
	assert.True(t, third.AlreadyOnList)
}

func TestWaitlistRegistration_ConcurrentSubmissionsCreateOne(t *testing.T) {
	provider := newSQLiteProvider(t)
	service := NewWaitlistService(testLogger(), NewWaitlistRepository(provider), nil)

	variants := []string{"race@example.com", "Race@Example.com", "RACE@EXAMPLE.COM", " race@example.com "}
	const perVariant = 5

	var created atomic.Int32
	var wg sync.WaitGroup
	for _, email := range variants {
		for i := 0; i < perVariant; i++ {
			wg.Add(1)
			go func(email string) {
				defer wg.Done()
				res, err := service.Join(context.Background(), &JoinWaitlistRequest{Email: email}, models.ClientMetadata{})
				if assert.NoError(t, err) && !res.AlreadyOnList {
					created.Add(1)
				}
			}(email)
		}
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())

	handle, err := provider.Acquire(context.Background())
	require.NoError(t, err)
	count, err := handle.Waitlist().EstimatedCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

type unavailableStore struct{}

func (unavailableStore) Acquire(context.Context) (storage.Handle, error) {
	return nil, apperrors.NewStorageUnavailableError("storage is not configured", storage.ErrNotConfigured)
}

func TestWaitlistRepository_UnconfiguredStorage(t *testing.T) {
	repo := NewWaitlistRepository(unavailableStore{})

	_, err := repo.RegisterEntry(context.Background(), &models.WaitlistEntry{EmailLower: "a@b.co"})

	require.Error(t, err)
	assert.True(t, apperrors.IsStorageUnavailable(err))
	assert.True(t, errors.Is(err, storage.ErrNotConfigured))
}
