package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"product-store-service/internal/store"
)

// product-store migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the categories and products tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		conn, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := store.Migrate(ctx, conn.DB(), cfg.Database.Driver); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Printf("INFO: Schema is up to date on %s", cfg.Database.Driver)
		return nil
	},
}
