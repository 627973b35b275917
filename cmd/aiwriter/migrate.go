package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/chiawen/aiwriter/internal/config"
)

var (
	migrationsPath string
	migrateDown    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "migrations", "Directory holding the migration files")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back all migrations instead of applying them")
}

func runMigrate() error {
	m, err := migrate.New("file://"+migrationsPath, config.LoadDatabaseURL())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if migrateDown {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Println("Migrations applied")
	return nil
}
