package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/h77compass/first-repo/config"
	"github.com/h77compass/first-repo/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return migrate(cmd, cfg)
}

func migrate(cmd *cobra.Command, cfg config.AppConfig) error {
	conn, err := config.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("connect %s database: %w", cfg.DBDriver, err)
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := config.Migrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DBDriver)
	return nil
}
