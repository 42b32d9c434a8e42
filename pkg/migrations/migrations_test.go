package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(string, ...any) {}

type fakeMigrator struct {
	upErr      error
	downErr    error
	versionErr error
	version    uint
	ups        atomic.Int32
	downs      atomic.Int32
}

func (m *fakeMigrator) Up() error {
	m.ups.Add(1)
	return m.upErr
}

func (m *fakeMigrator) Down() error {
	m.downs.Add(1)
	return m.downErr
}

func (m *fakeMigrator) Version() (uint, bool, error) {
	return m.version, false, m.versionErr
}

func (m *fakeMigrator) Close() (error, error) { return nil, nil }

type blockingMigrator struct {
	fakeMigrator
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func (m *blockingMigrator) Up() error {
	<-m.closeCh
	return nil
}

func (m *blockingMigrator) Close() (error, error) {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.closeCh)
	})
	return nil, nil
}

func stubFactories(t *testing.T, m migrator, gotSourceURL *string) {
	t.Helper()

	origDriver, origMigrator := driverFactory, migratorFactory
	t.Cleanup(func() {
		driverFactory, migratorFactory = origDriver, origMigrator
	})

	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		assert.Equal(t, DefaultTable, cfg.MigrationsTable)
		return nil, nil
	}
	migratorFactory = func(sourceURL string, _ database.Driver) (migrator, error) {
		if gotSourceURL != nil {
			*gotSourceURL = sourceURL
		}
		return m, nil
	}
}

func TestRun_NilDB(t *testing.T) {
	require.Error(t, Up(context.Background(), nil, Config{}))
}

func TestRun_UnknownDirection(t *testing.T) {
	err := Run(context.Background(), &sql.DB{}, Config{}, Direction("sideways"))
	assert.ErrorContains(t, err, "unknown direction")
}

func TestUp_ContextAlreadyCancelled(t *testing.T) {
	var created atomic.Bool
	origDriver, origMigrator := driverFactory, migratorFactory
	t.Cleanup(func() { driverFactory, migratorFactory = origDriver, origMigrator })
	driverFactory = func(*sql.DB, Config) (database.Driver, error) {
		created.Store(true)
		return nil, nil
	}
	migratorFactory = func(string, database.Driver) (migrator, error) {
		created.Store(true)
		return &fakeMigrator{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, created.Load())
}

func TestUp_DeadlineClosesMigrator(t *testing.T) {
	block := &blockingMigrator{closeCh: make(chan struct{})}
	stubFactories(t, block, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, block.closed.Load())
}

func TestUp_NoChangeIsSuccess(t *testing.T) {
	logger := &recordingLogger{}
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.Contains(t, logger.infos, "No migrations to apply")
}

func TestUp_AppliesAndLogsVersion(t *testing.T) {
	logger := &recordingLogger{}
	m := &fakeMigrator{version: 2}
	stubFactories(t, m, nil)

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.Equal(t, int32(1), m.ups.Load())
	assert.Zero(t, m.downs.Load())
	assert.Contains(t, logger.infos, "Migrations applied successfully")
}

func TestDown_RevertsAll(t *testing.T) {
	logger := &recordingLogger{}
	m := &fakeMigrator{versionErr: migrate.ErrNilVersion}
	stubFactories(t, m, nil)

	require.NoError(t, Down(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.Equal(t, int32(1), m.downs.Load())
	assert.Zero(t, m.ups.Load())
	assert.Empty(t, logger.warns)
}

func TestUp_WrapsMigrationErrors(t *testing.T) {
	stubFactories(t, &fakeMigrator{upErr: errors.New("syntax error at or near")}, nil)

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorContains(t, err, "migrations: up")
}

func TestUp_MigratorInitError(t *testing.T) {
	origDriver, origMigrator := driverFactory, migratorFactory
	t.Cleanup(func() { driverFactory, migratorFactory = origDriver, origMigrator })
	driverFactory = func(*sql.DB, Config) (database.Driver, error) { return nil, nil }
	migratorFactory = func(string, database.Driver) (migrator, error) { return nil, errors.New("boom") }

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorContains(t, err, "migrations: init")
}

func TestUp_SourceURLEscapesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rankly migrations")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	var got string
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange}, &got)

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: dir}))

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, "file", parsed.Scheme)
	assert.Equal(t, filepath.ToSlash(abs), parsed.Path)
}
