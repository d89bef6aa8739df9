package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/books-manager/cmd/books/book"
	"github.com/books-manager/cmd/books/config"
	"github.com/books-manager/cmd/books/database"
	"github.com/books-manager/cmd/books/inmemory"
	"github.com/books-manager/cmd/books/logging"
	"github.com/books-manager/cmd/books/notifications"
	"github.com/books-manager/cmd/books/shell"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		log.Error().Err(err).Msg("books exited with error")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "books",
		Short:         "Interactive book record manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the books table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	})

	return rootCmd
}

func run(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(cfg.Database)
	if err != nil {
		return err
	}
	defer closeRepo()
	fmt.Println("*Connected to database*")

	var notifier book.Notifier
	if cfg.Notifications.Enabled {
		notifier = notifications.NewNtfy(true, cfg.Notifications.BaseURL, &http.Client{})
	}

	bookService := book.NewService(repo, notifier, cfg.Notifications.Timeout)
	return shell.New(bookService, shell.NewLineInput(os.Stdin), os.Stdout).Run(ctx)
}

func runMigrate(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return errors.New("migrating: the memory driver has no schema to migrate")
	}

	_, closeRepo, err := openRepository(cfg.Database)
	if err != nil {
		return err
	}
	defer closeRepo()

	log.Info().Str("path", cfg.Database.MigrationsPath).Msg("migrations applied")
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

/* Opens the configured storage and makes sure the books table exists. */
func openRepository(cfg config.DatabaseConfig) (book.Repository, func(), error) {
	if cfg.Driver == config.DriverMemory {
		store, err := inmemory.NewInMemoryStore()
		if err != nil {
			return nil, nil, fmt.Errorf("creating in-memory store: %w", err)
		}
		return store, func() {}, nil
	}

	dbObject, err := database.ConnectDb(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting with db: %w", err)
	}
	closeDb := func() {
		if err := dbObject.Close(); err != nil {
			log.Error().Err(err).Msg("closing db")
		}
	}

	store := database.NewStore(dbObject, cfg.Driver)
	err = database.MigrationUp(store, cfg.MigrationsPath)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		closeDb()
		return nil, nil, fmt.Errorf("migrating: %w", err)
	}

	return store, closeDb, nil
}
