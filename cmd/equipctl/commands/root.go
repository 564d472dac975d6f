package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"equipmarket/internal/config"
	"equipmarket/internal/database"
	"equipmarket/internal/database/migrate"
	"equipmarket/internal/domain"
	"equipmarket/internal/domain/catalog"
	"equipmarket/internal/server"
)

// exitPartialFailure is returned by wipe when only the catalog was cleared.
const exitPartialFailure = 2

type globalFlags struct {
	dbURL      string
	configPath string
}

// NewRootCmd builds the equipctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "equipctl",
		Short: "Maintenance tool for the equipment marketplace",
		Long: `equipctl manages the marketplace database directly.

Commands:
  migrate        - create or update tables
  user create    - add a seller or admin account
  seed           - load demo accounts and equipment
  wipe           - delete all equipment and history
  hash-password  - print the stored form of a password`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.dbURL, "db", "", "Database URL (defaults to DATABASE_URL or the config file)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Configuration file (toml format)")

	root.AddCommand(
		newMigrateCmd(flags),
		newUserCmd(flags),
		newSeedCmd(flags),
		newWipeCmd(flags),
		newHashPasswordCmd(),
	)
	return root
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, domain.ErrPartialFailure) {
			os.Exit(exitPartialFailure)
		}
		os.Exit(1)
	}
}

func (f *globalFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.dbURL != "" {
		cfg.Database.URL = f.dbURL
	}
	return cfg, nil
}

func (f *globalFlags) connect() (*config.Config, *gorm.DB, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg.Database.URL, database.Options{LogQueries: cfg.Database.LogQueries})
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := migrate.Run(db); err != nil {
		closeDB(db)
		return nil, nil, err
	}
	return cfg, db, nil
}

// open wires the same services the API uses. Catalog writes invalidate the
// API's Redis listings when REDIS_URL is set; events are not brokered.
func (f *globalFlags) open() (*server.App, func(), error) {
	cfg, db, err := f.connect()
	if err != nil {
		return nil, nil, err
	}

	opts := server.Options{Quiet: true}
	rdb := catalog.DialRedis(cfg.Redis.URL)
	if rdb != nil {
		opts.Cache = catalog.NewRedisCache(rdb, catalog.CachePrefix, cfg.Redis.CacheTTL)
	}
	closeAll := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		closeDB(db)
	}
	return server.New(cfg, db, opts), closeAll, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// operator is the session CLI commands act under.
var operator = domain.Session{Username: "equipctl", Role: domain.RoleAdmin}
