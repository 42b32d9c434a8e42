package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/akeren/rankly-signals/config"
	"github.com/akeren/rankly-signals/domain/analytics"
	"github.com/akeren/rankly-signals/domain/waitlist"
	"github.com/akeren/rankly-signals/internal/log"
	"github.com/akeren/rankly-signals/internal/models"
	"github.com/akeren/rankly-signals/internal/storage"
	"github.com/akeren/rankly-signals/pkg/migrations"
	"github.com/akeren/rankly-signals/pkg/utils"
)

func main() {
	// Logs go to stderr so stdout carries only command output.
	logger := log.NewLoggerWithWriter(os.Stderr, log.ParseLevel(os.Getenv("LOG_LEVEL")))

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error

	switch args[0] {
	case "migrate":
		direction := migrations.DirectionUp
		if len(args) > 1 {
			direction = migrations.Direction(args[1])
		}
		err = runMigrate(ctx, logger, direction)

	case "ensure-schema":
		err = runEnsureSchema(ctx, logger)

	case "join":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: cli join <email>")
			os.Exit(1)
		}
		err = runJoin(ctx, logger, args[1])

	case "stats":
		err = runStats(ctx, logger)

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Command failed", "command", args[0], "error", err.Error())
		os.Exit(1)
	}
}

func withStorage(ctx context.Context, logger *log.Logger, ensureSchema bool, fn func(*storage.Provider) error) error {
	provider := config.NewStorageProvider(logger, ensureSchema)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = provider.Close(closeCtx)
	}()

	return fn(provider)
}

func runMigrate(ctx context.Context, logger *log.Logger, direction migrations.Direction) error {
	return withStorage(ctx, logger, false, func(provider *storage.Provider) error {
		handle, err := provider.Acquire(ctx)
		if err != nil {
			return err
		}

		sqlHandle, ok := handle.(storage.SQLHandle)
		if !ok || handle.Backend() != storage.BackendPostgres {
			return fmt.Errorf("migrate supports PostgreSQL only (backend is %s); use ensure-schema", handle.Backend())
		}

		sqlDB, err := sqlHandle.DB().DB()
		if err != nil {
			return fmt.Errorf("get SQL DB instance: %w", err)
		}

		migrationsDir := utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir)

		if err := migrations.Run(ctx, sqlDB, migrations.Config{Dir: migrationsDir, Logger: logger}, direction); err != nil {
			return err
		}

		logger.Info("Database migrations completed", "direction", direction)
		return nil
	})
}

func runEnsureSchema(ctx context.Context, logger *log.Logger) error {
	return withStorage(ctx, logger, true, func(provider *storage.Provider) error {
		if err := provider.Warm(ctx); err != nil {
			return err
		}

		logger.Info("Storage schema ensured", "state", provider.State().String())
		return nil
	})
}

func runJoin(ctx context.Context, logger *log.Logger, email string) error {
	return withStorage(ctx, logger, false, func(provider *storage.Provider) error {
		service := waitlist.NewWaitlistServiceFactory(provider, logger).CreateService(nil)

		result, err := service.Join(ctx, &waitlist.JoinWaitlistRequest{Email: email}, models.NewClientMetadata("", "", models.SourceCLI))
		if err != nil {
			return err
		}

		return printJSON(result)
	})
}

func runStats(ctx context.Context, logger *log.Logger) error {
	return withStorage(ctx, logger, false, func(provider *storage.Provider) error {
		snapshot, err := analytics.NewMetricsServiceFactory(provider, logger, nil, 0).CreateService().Snapshot(ctx)
		if err != nil {
			return err
		}

		return printJSON(snapshot)
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [up|down]  Apply (or revert) PostgreSQL migrations and exit")
	fmt.Println("  ensure-schema      Connect and create the waitlist/events schema and indexes")
	fmt.Println("  join <email>       Add an email to the waitlist (source: cli)")
	fmt.Println("  stats              Print pageviews, waitlist joins and unique emails as JSON")
	fmt.Println("  help               Show this message")
}
