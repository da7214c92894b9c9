package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/siteanalysis/internal/database"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long:  "Applies the embedded SQL migrations that have not been recorded yet, in lexicographic order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.Migrate(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		log.Info("Migrations complete", logger.Fields{"applied": len(applied)})
		for _, name := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
