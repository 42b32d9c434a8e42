package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/pkg/retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists the tables owned by the SQL backends.
var Models = []any{
	&models.WaitlistEntry{},
	&models.Event{},
}

type sqlHandle struct {
	backend  Backend
	db       *gorm.DB
	waitlist *sqlWaitlist
	events   *sqlEvents
}

func newSQLHandle(backend Backend, db *gorm.DB) *sqlHandle {
	return &sqlHandle{
		backend:  backend,
		db:       db,
		waitlist: &sqlWaitlist{db: db},
		events:   &sqlEvents{db: db},
	}
}

// ConnectSQL opens PostgreSQL or SQLite through gorm. SQLite is always migrated;
// PostgreSQL only when cfg.EnsureSchema is set.
func ConnectSQL(ctx context.Context, target Target, cfg Config, logger *log.Logger) (Handle, error) {
	var dialector gorm.Dialector

	switch target.Backend {
	case BackendPostgres:
		dialector = postgres.Open(target.DSN)
	case BackendSQLite:
		dialector = sqlite.Open(target.DSN)
	default:
		return nil, fmt.Errorf("sql connect: unsupported backend %q", target.Backend)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if target.Backend == BackendSQLite {
		// One connection keeps an in-memory database alive and serialises writers.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Minute)
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	})

	if err := policy.Execute(ctx, sqlDB.PingContext); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if target.Backend == BackendSQLite || cfg.EnsureSchema {
		if err := gdb.WithContext(ctx).AutoMigrate(Models...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto-migrate failed: %w", err)
		}
		logger.Info("Database schema ensured", "backend", target.Backend)
	}

	return newSQLHandle(target.Backend, gdb), nil
}

func (h *sqlHandle) Backend() Backend {
	return h.backend
}

func (h *sqlHandle) Waitlist() WaitlistCollection {
	return h.waitlist
}

func (h *sqlHandle) Events() EventCollection {
	return h.events
}

func (h *sqlHandle) DB() *gorm.DB {
	return h.db
}

func (h *sqlHandle) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *sqlHandle) Close(_ context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqlWaitlist struct {
	db *gorm.DB
}

func (w *sqlWaitlist) InsertIfAbsent(ctx context.Context, entry *models.WaitlistEntry) (bool, error) {
	result := w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email_lower"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (w *sqlWaitlist) EstimatedCount(ctx context.Context) (int64, error) {
	var count int64
	if err := w.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type sqlEvents struct {
	db *gorm.DB
}

func (e *sqlEvents) Insert(ctx context.Context, event *models.Event) error {
	return e.db.WithContext(ctx).Create(event).Error
}

func (e *sqlEvents) CountByType(ctx context.Context, eventType string) (int64, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("type = ?", eventType).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
