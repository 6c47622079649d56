package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/erp/stocktransfer/internal/domain/inventory"
	"github.com/erp/stocktransfer/internal/infrastructure/config"
	"github.com/erp/stocktransfer/internal/infrastructure/logger"
	"github.com/erp/stocktransfer/internal/infrastructure/migration"
	"github.com/erp/stocktransfer/internal/infrastructure/persistence"
	"github.com/erp/stocktransfer/migrations"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// dbCommand runs against a migrated database
type dbCommand func(ctx context.Context, db *persistence.Database, m *migration.Migrator, args []string, log *zap.Logger) error

var dbCommands = map[string]dbCommand{
	"up": func(_ context.Context, _ *persistence.Database, m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Up()
	},
	"down": func(_ context.Context, _ *persistence.Database, m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Down()
	},
	"step": func(_ context.Context, _ *persistence.Database, m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"force": func(_ context.Context, _ *persistence.Database, m *migration.Migrator, args []string, _ *zap.Logger) error {
		version, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(version)
	},
	"version": func(_ context.Context, _ *persistence.Database, m *migration.Migrator, _ []string, log *zap.Logger) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
	// seed registers the stock movement types the transfer workflow posts with
	"seed": func(ctx context.Context, db *persistence.Database, _ *migration.Migrator, _ []string, log *zap.Logger) error {
		registry, err := persistence.LoadMovementTypeRegistry(ctx, db.DB)
		if err != nil {
			return err
		}
		for _, t := range inventory.AllMovementTypes() {
			log.Info("Movement type ready", zap.String("name", t.Name()), zap.String("id", registry.ID(t).String()))
		}
		return nil
	},
}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(config.LogConfig{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), args[0], args[1:], migrationsPath, log); err != nil {
		if errors.Is(err, errUsage) {
			log.Error("Invalid arguments", zap.String("command", args[0]), zap.Error(err))
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(ctx context.Context, command string, args []string, migrationsPath string, log *zap.Logger) error {
	// create and list work on files only
	switch command {
	case "create":
		return createMigration(migrationsPath, args, log)
	case "list":
		return listMigrations(migrationsPath)
	}

	cmd, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations target postgres only, got driver %q; sqlite databases are created with AutoMigrate", cfg.Database.Driver)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	var m *migration.Migrator
	if migrationsPath != "" {
		m, err = migration.NewFromDir(sqlDB, migrationsPath, log)
	} else {
		m, err = migration.New(sqlDB, log)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	return cmd(ctx, db, m, args, log)
}

func createMigration(dir string, args []string, log *zap.Logger) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: migration name required", errUsage)
	}
	if dir == "" {
		dir = "migrations"
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func listMigrations(dir string) error {
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	entries, err := migration.ListMigrations(fsys)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("  %06d  %s\n", e.Version, e.Name)
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: number required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Stock transfer schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version
  force <version>       Set the version without running anything (clears dirty state)
  seed                  Register the stock movement types
  create <name> [desc]  Create the next numbered migration pair
  list                  List available migrations

Flags:
  -path string          Use migrations from this directory instead of the embedded set
  -log-level string     Log level: debug, info, warn, error (default: info)

Database settings come from config.toml and STX_DATABASE_* environment variables.`)
}
